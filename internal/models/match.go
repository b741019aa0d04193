package models

import "time"

// Match binds exactly one request to exactly one tutor. The matches table
// carries a unique index on request_id, so a second match for the same
// request can never be inserted.
type Match struct {
	Id               string    `json:"id"`
	RequestId        string    `json:"requestId"`
	TutorId          string    `json:"tutorId"`
	InvoiceGenerated bool      `json:"invoiceGenerated"`
	InvoiceURL       string    `json:"invoiceUrl,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"-"`
}
