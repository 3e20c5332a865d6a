package models

import "time"

// Session is a scheduled tutoring appointment (a lesson), not to be confused
// with the authentication session.
type Session struct {
	ID         int64
	Title      string
	StartAt    time.Time
	EndAt      *time.Time
	MeetingURL *string
	Notes      *string
	UserID     int64
	TeacherID  *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Minutes returns the session length in minutes. Open-ended sessions are
// counted as the default lesson length of 60 minutes.
func (s *Session) Minutes() int64 {
	if s.EndAt == nil {
		return 60
	}
	return int64(s.EndAt.Sub(s.StartAt) / time.Minute)
}

// SessionDetail is a session joined with learner and teacher identity, used
// by admin listings.
type SessionDetail struct {
	Session
	LearnerEmail string
	LearnerName  *string
	TeacherEmail *string
	TeacherName  *string
}
