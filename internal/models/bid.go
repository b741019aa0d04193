package models

import "time"

// Bid is a tutor's offer against a request. Bids are immutable once
// created and stay around as history after the request is matched.
type Bid struct {
	Id        string    `json:"id"`
	RequestId string    `json:"requestId"`
	TutorId   string    `json:"tutorId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// BidDetails is a bid enriched with the bidding tutor's profile and
// certificates, as shown to the parent reviewing offers.
type BidDetails struct {
	Bid
	Tutor        User          `json:"tutor"`
	Certificates []Certificate `json:"certificates"`
}
