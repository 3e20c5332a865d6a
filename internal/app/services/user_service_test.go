package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/app/repositories"
	"github.com/speexify/speexify/internal/pkg/apperrors"
	"github.com/speexify/speexify/internal/pkg/auth"
)

type fakeUserStore struct {
	users map[int64]*models.User
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) List(_ context.Context, role *models.Role) ([]*models.User, error) {
	var out []*models.User
	for _, user := range f.users {
		if role == nil || user.Role == *role {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, userID int64, name, timezone *string) error {
	user, ok := f.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if name != nil {
		user.Name = name
	}
	if timezone != nil {
		user.Timezone = timezone
	}
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, userID int64, hashedPassword string) error {
	user, ok := f.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	user.HashedPassword = hashedPassword
	return nil
}

func (f *fakeUserStore) AdminUpdate(_ context.Context, userID int64, patch repositories.UserPatch) error {
	user, ok := f.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if patch.Name != nil {
		user.Name = patch.Name
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.IsDisabled != nil {
		user.IsDisabled = *patch.IsDisabled
	}
	if patch.RateHourlyCents != nil {
		user.RateHourlyCents = patch.RateHourlyCents
	}
	if patch.RatePerSessionCents != nil {
		user.RatePerSessionCents = patch.RatePerSessionCents
	}
	return nil
}

type fakeSummaryStore struct {
	next      *models.Session
	upcoming  int64
	completed int64
}

func (f *fakeSummaryStore) FirstUpcoming(_ context.Context, _ int64, _ time.Time) (*models.Session, error) {
	return f.next, nil
}

func (f *fakeSummaryStore) CountUpcoming(_ context.Context, _ int64, _ time.Time) (int64, error) {
	return f.upcoming, nil
}

func (f *fakeSummaryStore) CountCompleted(_ context.Context, _ int64, _ time.Time) (int64, error) {
	return f.completed, nil
}

func newUserFixture(t *testing.T) (*UserService, *fakeUserStore, *fakeAuditLog) {
	t.Helper()
	hashed, err := auth.HashPassword("password123")
	require.NoError(t, err)

	store := &fakeUserStore{users: map[int64]*models.User{
		1: {ID: 1, Email: "learner@example.com", Role: models.RoleLearner, HashedPassword: hashed},
		2: {ID: 2, Email: "admin@example.com", Role: models.RoleAdmin, HashedPassword: hashed},
		3: {ID: 3, Email: "off@example.com", Role: models.RoleLearner, IsDisabled: true},
	}}
	audits := &fakeAuditLog{}
	service := NewUserService(store, &fakeSummaryStore{upcoming: 2, completed: 5}, audits, zerolog.Nop())
	return service, store, audits
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong current password", func(t *testing.T) {
		service, _, _ := newUserFixture(t)
		err := service.ChangePassword(ctx, 1, "wrong-password", "newpassword1")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("short new password", func(t *testing.T) {
		service, _, _ := newUserFixture(t)
		err := service.ChangePassword(ctx, 1, "password123", "short")
		require.ErrorIs(t, err, apperrors.ErrInvalidPassword)
	})

	t.Run("success", func(t *testing.T) {
		service, store, _ := newUserFixture(t)
		require.NoError(t, service.ChangePassword(ctx, 1, "password123", "newpassword1"))
		require.True(t, auth.CheckPassword(store.users[1].HashedPassword, "newpassword1"))
	})
}

func TestSummary(t *testing.T) {
	service, _, _ := newUserFixture(t)
	summary, err := service.Summary(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), summary.UpcomingCount)
	require.Equal(t, int64(5), summary.CompletedCount)
	require.Nil(t, summary.NextSession)
}

func TestListUsersRoleFilter(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newUserFixture(t)

	admin := models.RoleAdmin
	users, err := service.ListUsers(ctx, &admin)
	require.NoError(t, err)
	require.Len(t, users, 1)

	bogus := models.Role("wizard")
	_, err = service.ListUsers(ctx, &bogus)
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAdminUpdateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid role", func(t *testing.T) {
		service, _, _ := newUserFixture(t)
		bogus := models.Role("wizard")
		_, err := service.AdminUpdateUser(ctx, 2, 1, repositories.UserPatch{Role: &bogus})
		require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("missing target", func(t *testing.T) {
		service, _, _ := newUserFixture(t)
		disabled := true
		_, err := service.AdminUpdateUser(ctx, 2, 99, repositories.UserPatch{IsDisabled: &disabled})
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("applies patch and audits", func(t *testing.T) {
		service, _, audits := newUserFixture(t)
		teacher := models.RoleTeacher
		rate := 4500
		user, err := service.AdminUpdateUser(ctx, 2, 1, repositories.UserPatch{
			Role:            &teacher,
			RateHourlyCents: &rate,
		})
		require.NoError(t, err)
		require.Equal(t, models.RoleTeacher, user.Role)
		require.NotNil(t, user.RateHourlyCents)
		require.Len(t, audits.entries, 1)
		require.Equal(t, models.AuditUserUpdate, audits.entries[0].Action)
	})
}

func TestBeginImpersonation(t *testing.T) {
	ctx := context.Background()

	t.Run("self", func(t *testing.T) {
		service, store, _ := newUserFixture(t)
		_, err := service.BeginImpersonation(ctx, store.users[2], 2)
		require.ErrorIs(t, err, apperrors.ErrImpersonateSelf)
	})

	t.Run("missing target", func(t *testing.T) {
		service, store, _ := newUserFixture(t)
		_, err := service.BeginImpersonation(ctx, store.users[2], 99)
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("disabled target", func(t *testing.T) {
		service, store, _ := newUserFixture(t)
		_, err := service.BeginImpersonation(ctx, store.users[2], 3)
		require.ErrorIs(t, err, apperrors.ErrImpersonateDisabled)
	})

	t.Run("success audits the switch", func(t *testing.T) {
		service, store, audits := newUserFixture(t)
		target, err := service.BeginImpersonation(ctx, store.users[2], 1)
		require.NoError(t, err)
		require.Equal(t, int64(1), target.ID)
		require.Len(t, audits.entries, 1)
		require.Equal(t, models.AuditImpersonateStart, audits.entries[0].Action)
	})
}
