package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/app/models/dto"
	"github.com/speexify/speexify/internal/app/repositories"
	"github.com/speexify/speexify/internal/pkg/apperrors"
	"github.com/speexify/speexify/internal/pkg/helpers"
)

// SessionStore is the session persistence surface the scheduling operations
// need.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	Update(ctx context.Context, id int64, patch repositories.SessionPatch) error
	Delete(ctx context.Context, id int64) error
	ListByLearner(ctx context.Context, userID int64) ([]*models.Session, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]*models.Session, error)
	ListAll(ctx context.Context) ([]*models.Session, error)
	Search(ctx context.Context, filter repositories.SessionFilter) ([]*models.SessionDetail, int64, error)
}

// UserLookup resolves user ids for participant validation.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// SessionService implements session scheduling.
type SessionService struct {
	sessions SessionStore
	users    UserLookup
	audits   AuditRecorder
	logger   zerolog.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(sessions SessionStore, users UserLookup, audits AuditRecorder, logger zerolog.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		users:    users,
		audits:   audits,
		logger:   logger,
	}
}

// Create schedules a session. The start instant is built from the date and
// clock time in server-local time; the end follows the explicit-end-over-
// duration policy and may be open.
func (s *SessionService) Create(ctx context.Context, actorID int64, req *dto.CreateSessionRequest) (*models.Session, error) {
	startAt, err := helpers.CombineDateTime(req.Date, req.StartTime)
	if err != nil {
		return nil, err
	}
	endAt, err := helpers.ResolveEnd(req.Date, startAt, req.EndTime, req.Duration)
	if err != nil {
		return nil, err
	}
	if err := checkEndAfterStart(startAt, endAt); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		return nil, err
	}
	teacherID, err := s.resolveTeacher(ctx, req.TeacherID)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		Title:      req.Title,
		StartAt:    startAt,
		EndAt:      endAt,
		MeetingURL: req.MeetingURL,
		Notes:      req.Notes,
		UserID:     req.UserID,
		TeacherID:  teacherID,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.audit(ctx, actorID, models.AuditSessionCreate, session.ID, nil)
	return session, nil
}

// Update applies a partial session edit. Supplying both date and startTime
// moves the session and re-resolves its end with the same policy as create,
// so an edit that carries neither endTime nor duration leaves the moved
// session open-ended. endTime or duration alone adjust the end against the
// stored schedule; an empty endTime clears it. TeacherID is tri-state:
// absent keeps the assignment, zero or negative unassigns, a positive id
// reassigns.
func (s *SessionService) Update(ctx context.Context, actorID, id int64, req *dto.UpdateSessionRequest) (*models.Session, error) {
	existing, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := repositories.SessionPatch{
		Title:      req.Title,
		MeetingURL: req.MeetingURL,
		Notes:      req.Notes,
	}

	startAt := existing.StartAt
	endAt := existing.EndAt
	switch {
	case req.Date != nil && req.StartTime != nil:
		startAt, err = helpers.CombineDateTime(*req.Date, *req.StartTime)
		if err != nil {
			return nil, err
		}
		patch.StartAt = &startAt

		endTime := ""
		if req.EndTime != nil {
			endTime = *req.EndTime
		}
		endAt, err = helpers.ResolveEnd(*req.Date, startAt, endTime, req.Duration)
		if err != nil {
			return nil, err
		}
		if endAt == nil {
			patch.ClearEnd = true
		} else {
			patch.EndAt = endAt
		}

	case req.EndTime != nil && *req.EndTime == "":
		patch.ClearEnd = true
		endAt = nil

	case req.EndTime != nil:
		end, err := helpers.CombineDateTime(helpers.FormatDate(existing.StartAt), *req.EndTime)
		if err != nil {
			return nil, err
		}
		patch.EndAt = &end
		endAt = &end

	case req.Duration != nil:
		minutes := *req.Duration
		if minutes <= 0 {
			minutes = helpers.DefaultSessionMinutes
		}
		end := startAt.Add(time.Duration(minutes) * time.Minute)
		patch.EndAt = &end
		endAt = &end
	}
	if err := checkEndAfterStart(startAt, endAt); err != nil {
		return nil, err
	}

	if req.UserID != nil {
		if _, err := s.users.GetByID(ctx, *req.UserID); err != nil {
			return nil, err
		}
		patch.UserID = req.UserID
	}
	if req.TeacherID != nil {
		if *req.TeacherID <= 0 {
			patch.ClearTeacher = true
		} else {
			teacherID, err := s.resolveTeacher(ctx, req.TeacherID)
			if err != nil {
				return nil, err
			}
			patch.TeacherID = teacherID
		}
	}

	if err := s.sessions.Update(ctx, id, patch); err != nil {
		return nil, err
	}

	s.audit(ctx, actorID, models.AuditSessionUpdate, id, nil)
	return s.sessions.GetByID(ctx, id)
}

// Delete removes a session.
func (s *SessionService) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, actorID, models.AuditSessionDelete, id, nil)
	return nil
}

// ListVisible returns the sessions a user sees on their own schedule. An
// admin acting as themselves sees everything; the teaching view shows
// sessions assigned to the user as teacher; the default view shows sessions
// where the user is the learner.
func (s *SessionService) ListVisible(ctx context.Context, user *models.User, teachingView, impersonating bool) ([]*models.Session, error) {
	if user.Role == models.RoleAdmin && !impersonating {
		return s.sessions.ListAll(ctx)
	}
	if teachingView {
		return s.sessions.ListByTeacher(ctx, user.ID)
	}
	return s.sessions.ListByLearner(ctx, user.ID)
}

// AdminSearch runs the filtered, paginated admin listing with participant
// identity joined in.
func (s *SessionService) AdminSearch(ctx context.Context, filter repositories.SessionFilter) ([]*models.SessionDetail, int64, error) {
	return s.sessions.Search(ctx, filter)
}

// resolveTeacher validates an optional teacher assignment. Non-positive ids
// mean unassigned.
func (s *SessionService) resolveTeacher(ctx context.Context, teacherID *int64) (*int64, error) {
	if teacherID == nil || *teacherID <= 0 {
		return nil, nil
	}
	teacher, err := s.users.GetByID(ctx, *teacherID)
	if err != nil {
		return nil, err
	}
	return &teacher.ID, nil
}

func checkEndAfterStart(startAt time.Time, endAt *time.Time) error {
	if endAt != nil && !endAt.After(startAt) {
		return apperrors.NewBadRequestError("session end must be after its start")
	}
	return nil
}

func (s *SessionService) audit(ctx context.Context, actorID int64, action string, sessionID int64, metadata map[string]any) {
	err := s.audits.Record(ctx, &models.Audit{
		ActorID:    actorID,
		Action:     action,
		EntityType: "session",
		EntityID:   &sessionID,
		Metadata:   metadata,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("Failed to record audit entry")
	}
}
