package models

import "time"

// EmailCode is a pending one-time verification code for an email address.
// Only the SHA-256 digest of the code is stored. At most one row exists per
// email; a new request replaces the previous one.
type EmailCode struct {
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
	UpdatedAt time.Time
}
