package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/pkg/apperrors"
	"github.com/speexify/speexify/internal/pkg/sessionstore"
)

const testCookieName = "speexify_sid"

type fakeUsers struct {
	users map[int64]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

type middlewareFixture struct {
	router  *gin.Engine
	manager *sessionstore.Manager
	users   *fakeUsers
	mw      *AuthMiddleware
}

func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &middlewareFixture{
		manager: sessionstore.NewManager(sessionstore.NewMemoryStore(), "test-secret", time.Hour, 24*time.Hour),
		users: &fakeUsers{users: map[int64]*models.User{
			1: {ID: 1, Email: "learner@example.com", Role: models.RoleLearner},
			2: {ID: 2, Email: "admin@example.com", Role: models.RoleAdmin},
			3: {ID: 3, Email: "off@example.com", Role: models.RoleLearner, IsDisabled: true},
		}},
	}
	f.mw = NewAuthMiddleware(f.manager, f.users, testCookieName)

	f.router = gin.New()
	f.router.GET("/whoami", f.mw.RequireSession(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"actorId":       Actor(c).ID,
			"effectiveId":   EffectiveUser(c).ID,
			"impersonating": Impersonating(c),
		})
	})
	f.router.GET("/admin", f.mw.RequireSession(), f.mw.RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return f
}

func (f *middlewareFixture) login(t *testing.T, userID int64) string {
	t.Helper()
	cookie, err := f.manager.Start(context.Background(), userID)
	require.NoError(t, err)
	return cookie
}

func (f *middlewareFixture) get(path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: cookie})
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *middlewareFixture) impersonate(t *testing.T, cookie string, targetID int64) {
	t.Helper()
	id, data, err := f.manager.Resolve(context.Background(), cookie)
	require.NoError(t, err)
	data.ViewAsUserID = targetID
	require.NoError(t, f.manager.Update(context.Background(), id, data))
}

func TestRequireSession(t *testing.T) {
	t.Run("missing cookie", func(t *testing.T) {
		f := newMiddlewareFixture(t)
		w := f.get("/whoami", "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("tampered cookie", func(t *testing.T) {
		f := newMiddlewareFixture(t)
		cookie := f.login(t, 1)
		w := f.get("/whoami", cookie+"x")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid session", func(t *testing.T) {
		f := newMiddlewareFixture(t)
		cookie := f.login(t, 1)
		w := f.get("/whoami", cookie)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"actorId":1`)
		require.Contains(t, w.Body.String(), `"impersonating":false`)
	})

	t.Run("deleted user", func(t *testing.T) {
		f := newMiddlewareFixture(t)
		cookie := f.login(t, 1)
		delete(f.users.users, 1)
		w := f.get("/whoami", cookie)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("disabled user is rejected and logged out", func(t *testing.T) {
		f := newMiddlewareFixture(t)
		cookie := f.login(t, 3)
		w := f.get("/whoami", cookie)
		require.Equal(t, http.StatusForbidden, w.Code)

		// The session is gone, so the next request is plain unauthenticated.
		w = f.get("/whoami", cookie)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestImpersonation(t *testing.T) {
	t.Run("admin acts as the target", func(t *testing.T) {
		f := newMiddlewareFixture(t)
		cookie := f.login(t, 2)
		f.impersonate(t, cookie, 1)

		w := f.get("/whoami", cookie)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"actorId":2`)
		require.Contains(t, w.Body.String(), `"effectiveId":1`)
		require.Contains(t, w.Body.String(), `"impersonating":true`)
	})

	t.Run("admin keeps admin powers while impersonating", func(t *testing.T) {
		f := newMiddlewareFixture(t)
		cookie := f.login(t, 2)
		f.impersonate(t, cookie, 1)

		w := f.get("/admin", cookie)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non-admin impersonation state is dropped", func(t *testing.T) {
		f := newMiddlewareFixture(t)
		cookie := f.login(t, 1)
		f.impersonate(t, cookie, 2)

		w := f.get("/whoami", cookie)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"effectiveId":1`)
		require.Contains(t, w.Body.String(), `"impersonating":false`)
	})

	t.Run("stale target falls back to the actor", func(t *testing.T) {
		f := newMiddlewareFixture(t)
		cookie := f.login(t, 2)
		f.impersonate(t, cookie, 1)
		delete(f.users.users, 1)

		w := f.get("/whoami", cookie)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"effectiveId":2`)
		require.Contains(t, w.Body.String(), `"impersonating":false`)
	})
}

func TestRequireAdmin(t *testing.T) {
	f := newMiddlewareFixture(t)

	t.Run("learner is forbidden", func(t *testing.T) {
		cookie := f.login(t, 1)
		w := f.get("/admin", cookie)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		cookie := f.login(t, 2)
		w := f.get("/admin", cookie)
		require.Equal(t, http.StatusOK, w.Code)
	})
}
