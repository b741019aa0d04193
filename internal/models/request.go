package models

import "time"

type RequestStatus string

const (
	RequestSubmitted  RequestStatus = "submitted"
	RequestTestBooked RequestStatus = "test_booked"
	RequestMatched    RequestStatus = "matched"
	RequestInvoiced   RequestStatus = "invoiced"
)

func ValidRequestStatus(s RequestStatus) bool {
	switch s {
	case RequestSubmitted, RequestTestBooked, RequestMatched, RequestInvoiced:
		return true
	default:
		return false
	}
}

// BiddableRequestStatus reports whether tutors may still bid on a request
// in the given status.
func BiddableRequestStatus(s RequestStatus) bool {
	return s == RequestSubmitted || s == RequestTestBooked
}

type Request struct {
	Id              string        `json:"id"`
	ParentId        string        `json:"parentId"`
	StudentName     string        `json:"studentName"`
	StudentLevel    string        `json:"studentLevel"`
	Subjects        []string      `json:"subjects"`
	Address         string        `json:"address"`
	PostalCode      string        `json:"postalCode"`
	TestBooked      bool          `json:"diagnosticTestBooked"`
	TestScheduledAt *time.Time    `json:"diagnosticTestScheduledAt,omitempty"`
	TestCompleted   bool          `json:"diagnosticTestCompleted"`
	Status          RequestStatus `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"-"`
}
