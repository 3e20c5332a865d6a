package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/app/models/dto"
	"github.com/speexify/speexify/internal/app/repositories"
	"github.com/speexify/speexify/internal/pkg/apperrors"
)

type fakeSessionStore struct {
	sessions map[int64]*models.Session
	nextID   int64
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[int64]*models.Session), nextID: 1}
}

func (f *fakeSessionStore) Create(_ context.Context, s *models.Session) error {
	s.ID = f.nextID
	f.nextID++
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
	copy := *s
	f.sessions[s.ID] = &copy
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id int64) (*models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	copy := *s
	return &copy, nil
}

func (f *fakeSessionStore) Update(_ context.Context, id int64, patch repositories.SessionPatch) error {
	s, ok := f.sessions[id]
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	if patch.Title != nil {
		s.Title = *patch.Title
	}
	if patch.StartAt != nil {
		s.StartAt = *patch.StartAt
	}
	if patch.ClearEnd {
		s.EndAt = nil
	} else if patch.EndAt != nil {
		s.EndAt = patch.EndAt
	}
	if patch.MeetingURL != nil {
		s.MeetingURL = patch.MeetingURL
	}
	if patch.Notes != nil {
		s.Notes = patch.Notes
	}
	if patch.UserID != nil {
		s.UserID = *patch.UserID
	}
	if patch.ClearTeacher {
		s.TeacherID = nil
	} else if patch.TeacherID != nil {
		s.TeacherID = patch.TeacherID
	}
	s.UpdatedAt = time.Now()
	return nil
}

func (f *fakeSessionStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.sessions[id]; !ok {
		return apperrors.ErrSessionNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionStore) ListByLearner(_ context.Context, userID int64) ([]*models.Session, error) {
	var out []*models.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) ListByTeacher(_ context.Context, teacherID int64) ([]*models.Session, error) {
	var out []*models.Session
	for _, s := range f.sessions {
		if s.TeacherID != nil && *s.TeacherID == teacherID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) ListAll(_ context.Context) ([]*models.Session, error) {
	var out []*models.Session
	for _, s := range f.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSessionStore) Search(_ context.Context, _ repositories.SessionFilter) ([]*models.SessionDetail, int64, error) {
	return nil, 0, nil
}

type fakeUserLookup struct {
	users map[int64]*models.User
}

func (f *fakeUserLookup) GetByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

type fakeAuditLog struct {
	entries []*models.Audit
}

func (f *fakeAuditLog) Record(_ context.Context, audit *models.Audit) error {
	f.entries = append(f.entries, audit)
	return nil
}

type sessionFixture struct {
	service *SessionService
	store   *fakeSessionStore
	users   *fakeUserLookup
	audits  *fakeAuditLog
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		store: newFakeSessionStore(),
		users: &fakeUserLookup{users: map[int64]*models.User{
			1: {ID: 1, Email: "learner@example.com", Role: models.RoleLearner},
			2: {ID: 2, Email: "teacher@example.com", Role: models.RoleTeacher},
			3: {ID: 3, Email: "admin@example.com", Role: models.RoleAdmin},
		}},
		audits: &fakeAuditLog{},
	}
	f.service = NewSessionService(f.store, f.users, f.audits, zerolog.Nop())
	return f
}

const adminID = int64(3)

func TestSessionCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit end time wins", func(t *testing.T) {
		f := newSessionFixture()
		duration := 30
		session, err := f.service.Create(ctx, adminID, &dto.CreateSessionRequest{
			UserID:    1,
			Title:     "Conversation practice",
			Date:      "2026-04-01",
			StartTime: "10:00",
			EndTime:   "11:30",
			Duration:  &duration,
		})
		require.NoError(t, err)
		require.NotNil(t, session.EndAt)
		require.Equal(t, 90*time.Minute, session.EndAt.Sub(session.StartAt))
		require.Len(t, f.audits.entries, 1)
		require.Equal(t, models.AuditSessionCreate, f.audits.entries[0].Action)
	})

	t.Run("duration fallback", func(t *testing.T) {
		f := newSessionFixture()
		duration := 45
		session, err := f.service.Create(ctx, adminID, &dto.CreateSessionRequest{
			UserID: 1, Title: "Lesson", Date: "2026-04-01", StartTime: "10:00",
			Duration: &duration,
		})
		require.NoError(t, err)
		require.NotNil(t, session.EndAt)
		require.Equal(t, 45*time.Minute, session.EndAt.Sub(session.StartAt))
	})

	t.Run("open ended when neither given", func(t *testing.T) {
		f := newSessionFixture()
		session, err := f.service.Create(ctx, adminID, &dto.CreateSessionRequest{
			UserID: 1, Title: "Lesson", Date: "2026-04-01", StartTime: "10:00",
		})
		require.NoError(t, err)
		require.Nil(t, session.EndAt)
	})

	t.Run("end before start rejected", func(t *testing.T) {
		f := newSessionFixture()
		_, err := f.service.Create(ctx, adminID, &dto.CreateSessionRequest{
			UserID: 1, Title: "Lesson", Date: "2026-04-01", StartTime: "10:00",
			EndTime: "09:00",
		})
		require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("unknown learner rejected", func(t *testing.T) {
		f := newSessionFixture()
		_, err := f.service.Create(ctx, adminID, &dto.CreateSessionRequest{
			UserID: 99, Title: "Lesson", Date: "2026-04-01", StartTime: "10:00",
		})
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("teacher assignment", func(t *testing.T) {
		f := newSessionFixture()
		teacherID := int64(2)
		session, err := f.service.Create(ctx, adminID, &dto.CreateSessionRequest{
			UserID: 1, Title: "Lesson", Date: "2026-04-01", StartTime: "10:00",
			TeacherID: &teacherID,
		})
		require.NoError(t, err)
		require.NotNil(t, session.TeacherID)
		require.Equal(t, teacherID, *session.TeacherID)

		missing := int64(99)
		_, err = f.service.Create(ctx, adminID, &dto.CreateSessionRequest{
			UserID: 1, Title: "Lesson", Date: "2026-04-01", StartTime: "10:00",
			TeacherID: &missing,
		})
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)

		zero := int64(0)
		session, err = f.service.Create(ctx, adminID, &dto.CreateSessionRequest{
			UserID: 1, Title: "Lesson", Date: "2026-04-01", StartTime: "10:00",
			TeacherID: &zero,
		})
		require.NoError(t, err)
		require.Nil(t, session.TeacherID)
	})

	t.Run("invalid date rejected", func(t *testing.T) {
		f := newSessionFixture()
		_, err := f.service.Create(ctx, adminID, &dto.CreateSessionRequest{
			UserID: 1, Title: "Lesson", Date: "April 1st", StartTime: "10:00",
		})
		require.ErrorIs(t, err, apperrors.ErrInvalidDateTime)
	})
}

func TestSessionUpdate(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, f *sessionFixture) *models.Session {
		t.Helper()
		duration := 60
		session, err := f.service.Create(ctx, adminID, &dto.CreateSessionRequest{
			UserID: 1, Title: "Lesson", Date: "2026-04-01", StartTime: "10:00",
			Duration: &duration,
		})
		require.NoError(t, err)
		return session
	}

	t.Run("missing session is not found", func(t *testing.T) {
		f := newSessionFixture()
		title := "New title"
		_, err := f.service.Update(ctx, adminID, 42, &dto.UpdateSessionRequest{Title: &title})
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})

	t.Run("moving without end leaves the session open", func(t *testing.T) {
		f := newSessionFixture()
		s := seed(t, f)
		date, start := "2026-04-02", "14:00"
		updated, err := f.service.Update(ctx, adminID, s.ID, &dto.UpdateSessionRequest{
			Date: &date, StartTime: &start,
		})
		require.NoError(t, err)
		require.Nil(t, updated.EndAt)
		require.Equal(t, 14, updated.StartAt.Hour())
	})

	t.Run("moving with duration keeps an end", func(t *testing.T) {
		f := newSessionFixture()
		s := seed(t, f)
		date, start := "2026-04-02", "14:00"
		duration := 30
		updated, err := f.service.Update(ctx, adminID, s.ID, &dto.UpdateSessionRequest{
			Date: &date, StartTime: &start, Duration: &duration,
		})
		require.NoError(t, err)
		require.NotNil(t, updated.EndAt)
		require.Equal(t, 30*time.Minute, updated.EndAt.Sub(updated.StartAt))
	})

	t.Run("empty end time clears the end", func(t *testing.T) {
		f := newSessionFixture()
		s := seed(t, f)
		empty := ""
		updated, err := f.service.Update(ctx, adminID, s.ID, &dto.UpdateSessionRequest{EndTime: &empty})
		require.NoError(t, err)
		require.Nil(t, updated.EndAt)
	})

	t.Run("end time alone adjusts against stored date", func(t *testing.T) {
		f := newSessionFixture()
		s := seed(t, f)
		end := "12:30"
		updated, err := f.service.Update(ctx, adminID, s.ID, &dto.UpdateSessionRequest{EndTime: &end})
		require.NoError(t, err)
		require.NotNil(t, updated.EndAt)
		require.Equal(t, 150*time.Minute, updated.EndAt.Sub(updated.StartAt))
	})

	t.Run("end before start rejected", func(t *testing.T) {
		f := newSessionFixture()
		s := seed(t, f)
		end := "08:00"
		_, err := f.service.Update(ctx, adminID, s.ID, &dto.UpdateSessionRequest{EndTime: &end})
		require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("teacher tri-state", func(t *testing.T) {
		f := newSessionFixture()
		s := seed(t, f)

		teacherID := int64(2)
		updated, err := f.service.Update(ctx, adminID, s.ID, &dto.UpdateSessionRequest{TeacherID: &teacherID})
		require.NoError(t, err)
		require.NotNil(t, updated.TeacherID)
		require.Equal(t, teacherID, *updated.TeacherID)

		// Absent leaves the assignment alone.
		title := "Renamed"
		updated, err = f.service.Update(ctx, adminID, s.ID, &dto.UpdateSessionRequest{Title: &title})
		require.NoError(t, err)
		require.NotNil(t, updated.TeacherID)

		// Non-positive unassigns.
		unassign := int64(0)
		updated, err = f.service.Update(ctx, adminID, s.ID, &dto.UpdateSessionRequest{TeacherID: &unassign})
		require.NoError(t, err)
		require.Nil(t, updated.TeacherID)
	})

	t.Run("learner reassignment is validated", func(t *testing.T) {
		f := newSessionFixture()
		s := seed(t, f)
		missing := int64(99)
		_, err := f.service.Update(ctx, adminID, s.ID, &dto.UpdateSessionRequest{UserID: &missing})
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}

func TestSessionDelete(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	session, err := f.service.Create(ctx, adminID, &dto.CreateSessionRequest{
		UserID: 1, Title: "Lesson", Date: "2026-04-01", StartTime: "10:00",
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, adminID, session.ID))
	require.ErrorIs(t, f.service.Delete(ctx, adminID, session.ID), apperrors.ErrSessionNotFound)
}

func TestListVisible(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	teacherID := int64(2)
	for _, req := range []*dto.CreateSessionRequest{
		{UserID: 1, Title: "A", Date: "2026-04-01", StartTime: "10:00", TeacherID: &teacherID},
		{UserID: 1, Title: "B", Date: "2026-04-02", StartTime: "10:00"},
		{UserID: 3, Title: "C", Date: "2026-04-03", StartTime: "10:00"},
	} {
		_, err := f.service.Create(ctx, adminID, req)
		require.NoError(t, err)
	}

	learner := f.users.users[1]
	teacher := f.users.users[2]
	admin := f.users.users[3]

	t.Run("learner sees own sessions", func(t *testing.T) {
		sessions, err := f.service.ListVisible(ctx, learner, false, false)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
	})

	t.Run("teaching view sees assigned sessions", func(t *testing.T) {
		sessions, err := f.service.ListVisible(ctx, teacher, true, false)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		require.Equal(t, "A", sessions[0].Title)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		sessions, err := f.service.ListVisible(ctx, admin, false, false)
		require.NoError(t, err)
		require.Len(t, sessions, 3)
	})

	t.Run("impersonating admin sees the target view", func(t *testing.T) {
		sessions, err := f.service.ListVisible(ctx, learner, false, true)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
	})
}
