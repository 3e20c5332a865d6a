package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/app/repositories"
	"github.com/speexify/speexify/internal/pkg/apperrors"
	"github.com/speexify/speexify/internal/pkg/auth"
)

// UserStore is the user persistence surface the user operations need.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, role *models.Role) ([]*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, name, timezone *string) error
	UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error
	AdminUpdate(ctx context.Context, userID int64, patch repositories.UserPatch) error
}

// SummaryStore is the session aggregate surface backing the dashboard
// summary.
type SummaryStore interface {
	FirstUpcoming(ctx context.Context, userID int64, now time.Time) (*models.Session, error)
	CountUpcoming(ctx context.Context, userID int64, now time.Time) (int64, error)
	CountCompleted(ctx context.Context, userID int64, now time.Time) (int64, error)
}

// AuditRecorder appends audit entries. Recording is best effort.
type AuditRecorder interface {
	Record(ctx context.Context, audit *models.Audit) error
}

// Summary is the learner dashboard aggregate.
type Summary struct {
	NextSession    *models.Session
	UpcomingCount  int64
	CompletedCount int64
}

// UserService implements profile, directory and admin user operations.
type UserService struct {
	userStore UserStore
	sessions  SummaryStore
	audits    AuditRecorder
	logger    zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userStore UserStore, sessions SummaryStore, audits AuditRecorder, logger zerolog.Logger) *UserService {
	return &UserService{
		userStore: userStore,
		sessions:  sessions,
		audits:    audits,
		logger:    logger,
	}
}

// GetProfile returns a user by id.
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	return s.userStore.GetByID(ctx, userID)
}

// UpdateProfile applies a partial profile edit and returns the fresh record.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, name, timezone *string) (*models.User, error) {
	if err := s.userStore.UpdateProfile(ctx, userID, name, timezone); err != nil {
		return nil, err
	}
	return s.userStore.GetByID(ctx, userID)
}

// ChangePassword changes a user's own password after checking the current
// one. The caller is responsible for passing the real actor's id, never an
// impersonated identity.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.HashedPassword, currentPassword) {
		return apperrors.ErrInvalidCredentials
	}

	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.userStore.UpdatePassword(ctx, userID, hashed)
}

// Summary builds the dashboard summary for a user's sessions.
func (s *UserService) Summary(ctx context.Context, userID int64) (*Summary, error) {
	now := time.Now()

	next, err := s.sessions.FirstUpcoming(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.sessions.CountUpcoming(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	completed, err := s.sessions.CountCompleted(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	return &Summary{
		NextSession:    next,
		UpcomingCount:  upcoming,
		CompletedCount: completed,
	}, nil
}

// ListUsers returns users, optionally filtered by role.
func (s *UserService) ListUsers(ctx context.Context, role *models.Role) ([]*models.User, error) {
	if role != nil && !models.ValidRole(*role) {
		return nil, apperrors.NewBadRequestError("invalid role filter")
	}
	return s.userStore.List(ctx, role)
}

// AdminUpdateUser applies an admin-side partial update and audits it.
func (s *UserService) AdminUpdateUser(ctx context.Context, actorID, targetID int64, patch repositories.UserPatch) (*models.User, error) {
	if patch.Role != nil && !models.ValidRole(*patch.Role) {
		return nil, apperrors.NewBadRequestError("invalid role")
	}

	if err := s.userStore.AdminUpdate(ctx, targetID, patch); err != nil {
		return nil, err
	}
	s.audit(ctx, &models.Audit{
		ActorID:    actorID,
		Action:     models.AuditUserUpdate,
		EntityType: "user",
		EntityID:   &targetID,
	})
	return s.userStore.GetByID(ctx, targetID)
}

// BeginImpersonation validates that an admin may view the platform as the
// target user and audits the switch. The session mutation itself happens at
// the transport layer.
func (s *UserService) BeginImpersonation(ctx context.Context, actor *models.User, targetID int64) (*models.User, error) {
	if targetID == actor.ID {
		return nil, apperrors.ErrImpersonateSelf
	}
	target, err := s.userStore.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsDisabled {
		return nil, apperrors.ErrImpersonateDisabled
	}

	s.audit(ctx, &models.Audit{
		ActorID:    actor.ID,
		Action:     models.AuditImpersonateStart,
		EntityType: "user",
		EntityID:   &targetID,
	})
	s.logger.Info().Int64("actorId", actor.ID).Int64("targetId", targetID).Msg("Impersonation started")
	return target, nil
}

// EndImpersonation audits the return to the admin's own identity.
func (s *UserService) EndImpersonation(ctx context.Context, actorID, targetID int64) {
	s.audit(ctx, &models.Audit{
		ActorID:    actorID,
		Action:     models.AuditImpersonateStop,
		EntityType: "user",
		EntityID:   &targetID,
	})
	s.logger.Info().Int64("actorId", actorID).Int64("targetId", targetID).Msg("Impersonation stopped")
}

func (s *UserService) audit(ctx context.Context, audit *models.Audit) {
	if err := s.audits.Record(ctx, audit); err != nil {
		s.logger.Error().Err(err).Str("action", audit.Action).Msg("Failed to record audit entry")
	}
}
