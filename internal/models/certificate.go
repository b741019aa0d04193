package models

import "time"

// Certificate is a credential document attached to a tutor, referenced
// read-only when assembling bid details. The document itself lives in the
// blob store.
type Certificate struct {
	Id        string    `json:"id"`
	TutorId   string    `json:"tutorId"`
	Name      string    `json:"name"`
	FileURL   string    `json:"fileUrl"`
	CreatedAt time.Time `json:"createdAt"`
}
