package models

import "time"

// Role is a user's role within the platform.
type Role string

const (
	RoleLearner Role = "learner"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleLearner, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// User represents a platform account. Emails are stored lower-cased. Rates
// are teacher-only and held in integer cents.
type User struct {
	ID                  int64
	Email               string
	Name                *string
	Role                Role
	HashedPassword      string
	Timezone            *string
	IsDisabled          bool
	RateHourlyCents     *int
	RatePerSessionCents *int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
