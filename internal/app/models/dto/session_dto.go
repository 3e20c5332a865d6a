package dto

import (
	"time"

	"github.com/speexify/speexify/internal/app/models"
)

// CreateSessionRequest creates a scheduled session. Date is "2006-01-02",
// StartTime/EndTime are "15:04" clock times combined with Date.
type CreateSessionRequest struct {
	UserID     int64   `json:"userId" binding:"required"`
	Title      string  `json:"title" binding:"required"`
	Date       string  `json:"date" binding:"required"`
	StartTime  string  `json:"startTime" binding:"required"`
	EndTime    string  `json:"endTime"`
	Duration   *int    `json:"duration"`
	TeacherID  *int64  `json:"teacherId"`
	MeetingURL *string `json:"meetingUrl"`
	Notes      *string `json:"notes"`
}

// UpdateSessionRequest is a partial session update. TeacherID is tri-state:
// absent leaves the assignment unchanged, zero or negative unassigns, a
// positive id (re)assigns.
type UpdateSessionRequest struct {
	Title      *string `json:"title"`
	Date       *string `json:"date"`
	StartTime  *string `json:"startTime"`
	EndTime    *string `json:"endTime"`
	Duration   *int    `json:"duration"`
	MeetingURL *string `json:"meetingUrl"`
	Notes      *string `json:"notes"`
	UserID     *int64  `json:"userId"`
	TeacherID  *int64  `json:"teacherId"`
}

// SessionResponse represents a scheduled session
type SessionResponse struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	StartAt    time.Time  `json:"startAt"`
	EndAt      *time.Time `json:"endAt"`
	MeetingURL *string    `json:"meetingUrl"`
	Notes      *string    `json:"notes"`
	UserID     int64      `json:"userId"`
	TeacherID  *int64     `json:"teacherId"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// NewSessionResponse maps a session model to its response DTO
func NewSessionResponse(s *models.Session) *SessionResponse {
	if s == nil {
		return nil
	}
	return &SessionResponse{
		ID:         s.ID,
		Title:      s.Title,
		StartAt:    s.StartAt,
		EndAt:      s.EndAt,
		MeetingURL: s.MeetingURL,
		Notes:      s.Notes,
		UserID:     s.UserID,
		TeacherID:  s.TeacherID,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// SessionDetailResponse is a session with learner/teacher identity for admin
// listings.
type SessionDetailResponse struct {
	SessionResponse
	LearnerEmail string  `json:"learnerEmail"`
	LearnerName  *string `json:"learnerName"`
	TeacherEmail *string `json:"teacherEmail"`
	TeacherName  *string `json:"teacherName"`
}

// NewSessionDetailResponse maps a session detail to its response DTO
func NewSessionDetailResponse(d *models.SessionDetail) SessionDetailResponse {
	return SessionDetailResponse{
		SessionResponse: *NewSessionResponse(&d.Session),
		LearnerEmail:    d.LearnerEmail,
		LearnerName:     d.LearnerName,
		TeacherEmail:    d.TeacherEmail,
		TeacherName:     d.TeacherName,
	}
}

// AdminSessionListResponse is the paginated admin session listing.
type AdminSessionListResponse struct {
	Items   []SessionDetailResponse `json:"items"`
	Total   int64                   `json:"total"`
	HasMore bool                    `json:"hasMore"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
}
