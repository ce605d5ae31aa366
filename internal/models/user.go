package models

import "time"

// User represents an account in the system. Members reference users via
// their linked-account id; a user appears at most once per tree as a
// claimed member.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
