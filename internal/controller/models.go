package controller

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// New request

type NewRequestReq struct {
	StudentName     string     `json:"studentName"`
	StudentLevel    string     `json:"studentLevel"`
	Subjects        []string   `json:"subjects"`
	Address         string     `json:"address"`
	PostalCode      string     `json:"postalCode"`
	TestBooked      bool       `json:"diagnosticTestBooked"`
	TestScheduledAt *time.Time `json:"diagnosticTestScheduledAt"`
	ParentUsername  string     `json:"parentUsername"`
}

func ParseNewRequestReq(data []byte) (*NewRequestReq, error) {
	t := &NewRequestReq{}

	err := json.Unmarshal(data, t)
	if err != nil {
		return nil, err
	}

	if len(t.Subjects) == 0 {
		return nil, fmt.Errorf("subject list must not be empty")
	}
	if len(t.Subjects) > 20 {
		return nil, fmt.Errorf("too many subjects supplied: %d / 20", len(t.Subjects))
	}
	for _, subject := range t.Subjects {
		if err = checkLengthLimit(subject, "Subjects", 100); err != nil {
			return nil, err
		}
	}

	if err = checkLengthLimit(t.StudentName, "StudentName", 100); err != nil {
		return nil, err
	}
	if err = checkLengthLimit(t.StudentLevel, "StudentLevel", 100); err != nil {
		return nil, err
	}
	if err = checkLengthLimit(t.Address, "Address", 200); err != nil {
		return nil, err
	}
	if err = checkLengthLimit(t.PostalCode, "PostalCode", 20); err != nil {
		return nil, err
	}

	return t, nil
}

// New bid

type NewBidReq struct {
	RequestId     string `json:"requestId"`
	Message       string `json:"message"`
	TutorUsername string `json:"tutorUsername"`
}

func ParseNewBidReq(data []byte) (*NewBidReq, error) {
	t := &NewBidReq{}

	err := json.Unmarshal(data, t)
	if err != nil {
		return nil, err
	}

	if err = checkLengthLimit(t.RequestId, "RequestId", 100); err != nil {
		return nil, err
	}
	if err = checkLengthLimit(t.Message, "Message", 500); err != nil {
		return nil, err
	}

	return t, nil
}

// New certificate

type NewCertificateReq struct {
	Name          string `json:"name"`
	ContentType   string `json:"contentType"`
	Data          string `json:"data"` // base64
	TutorUsername string `json:"tutorUsername"`

	payload []byte
}

func ParseNewCertificateReq(data []byte) (*NewCertificateReq, error) {
	t := &NewCertificateReq{}

	err := json.Unmarshal(data, t)
	if err != nil {
		return nil, err
	}

	if err = checkLengthLimit(t.Name, "Name", 100); err != nil {
		return nil, err
	}
	if err = checkLengthLimit(t.ContentType, "ContentType", 100); err != nil {
		return nil, err
	}

	t.payload, err = base64.StdEncoding.DecodeString(t.Data)
	if err != nil {
		return nil, fmt.Errorf("field 'data' is not valid base64: %w", err)
	}
	if len(t.payload) == 0 {
		return nil, fmt.Errorf("field 'data' must not be empty")
	}

	return t, nil
}

// Service

func checkLengthLimit(str, fieldName string, limit int) error {
	if len(str) > limit {
		return fmt.Errorf("field '%s' exceeds length limit: %d / %d", fieldName, len(str), limit)
	}
	return nil
}
