package models

import "time"

type UserRole string

const (
	RoleParent UserRole = "parent"
	RoleTutor  UserRole = "tutor"
	RoleAdmin  UserRole = "admin"
)

func ValidUserRole(r UserRole) bool {
	switch r {
	case RoleParent, RoleTutor, RoleAdmin:
		return true
	default:
		return false
	}
}

// ProfileEntry is one answer of a tutor's open-ended questionnaire. The
// workflow passes these through unchanged, order preserved.
type ProfileEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type User struct {
	Id            string         `json:"id"`
	Username      string         `json:"username"`
	Role          UserRole       `json:"role"`
	FullName      string         `json:"fullName"`
	HourlyRate    float64        `json:"hourlyRate,omitempty"`
	Questionnaire []ProfileEntry `json:"questionnaire,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"-"`
}
