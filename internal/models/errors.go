package models

import "errors"

var (
	ErrInvalidUser        = errors.New("provided user either does not exist or has the wrong role for this operation")
	ErrForbidden          = errors.New("provided user does not have permission for this operation")
	ErrNoRequest          = errors.New("requested tuition request does not exist")
	ErrNoTutor            = errors.New("requested tutor does not exist")
	ErrNoMatch            = errors.New("requested match does not exist")
	ErrNoCertificate      = errors.New("requested certificate does not exist")
	ErrRequestNotBiddable = errors.New("request is already matched or invoiced, no further bids accepted")
	ErrAlreadyMatched     = errors.New("request already has a tutor matched")
	ErrInvalidTransition  = errors.New("request status does not allow this transition")
	ErrNoTestBooked       = errors.New("no diagnostic test was booked for this request")
	ErrTestCompleted      = errors.New("diagnostic test is already marked complete")
	ErrValidation         = errors.New("invalid input")
)
