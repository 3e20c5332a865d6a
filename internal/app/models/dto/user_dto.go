package dto

import (
	"time"

	"github.com/speexify/speexify/internal/app/models"
)

// UserResponse represents public user information
type UserResponse struct {
	ID                  int64     `json:"id"`
	Email               string    `json:"email"`
	Name                *string   `json:"name"`
	Role                string    `json:"role"`
	Timezone            *string   `json:"timezone"`
	IsDisabled          bool      `json:"isDisabled"`
	RateHourlyCents     *int      `json:"rateHourlyCents,omitempty"`
	RatePerSessionCents *int      `json:"ratePerSessionCents,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// NewUserResponse maps a user model to its response DTO
func NewUserResponse(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		Role:                string(u.Role),
		Timezone:            u.Timezone,
		IsDisabled:          u.IsDisabled,
		RateHourlyCents:     u.RateHourlyCents,
		RatePerSessionCents: u.RatePerSessionCents,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

// UpdateProfileRequest represents profile update data (partial)
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Timezone *string `json:"timezone"`
}

// AdminUpdateUserRequest is the admin-side partial user update.
type AdminUpdateUserRequest struct {
	Name                *string `json:"name"`
	Timezone            *string `json:"timezone"`
	Role                *string `json:"role"`
	IsDisabled          *bool   `json:"isDisabled"`
	RateHourlyCents     *int    `json:"rateHourlyCents"`
	RatePerSessionCents *int    `json:"ratePerSessionCents"`
}

// SummaryResponse is the learner dashboard summary.
type SummaryResponse struct {
	NextSession    *SessionResponse `json:"nextSession"`
	UpcomingCount  int64            `json:"upcomingCount"`
	CompletedCount int64            `json:"completedCount"`
}
