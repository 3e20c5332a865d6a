package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/pkg/apperrors"
	"github.com/speexify/speexify/internal/pkg/logger"
	"github.com/speexify/speexify/internal/pkg/sessionstore"
)

// Gin context keys set by RequireSession.
const (
	ContextSessionID     = "authSessionID"
	ContextSessionData   = "authSessionData"
	ContextActor         = "actor"
	ContextEffectiveUser = "effectiveUser"
	ContextImpersonating = "impersonating"
)

// UserFetcher loads users for session resolution.
type UserFetcher interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthMiddleware resolves the session cookie into an authenticated identity.
type AuthMiddleware struct {
	sessions   *sessionstore.Manager
	users      UserFetcher
	cookieName string
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(sessions *sessionstore.Manager, users UserFetcher, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:   sessions,
		users:      users,
		cookieName: cookieName,
	}
}

// RequireSession authenticates the request from its session cookie. The
// actor is re-fetched from the database on every request so role and
// disabled-flag changes take effect immediately. While an admin session is
// impersonating, the effective user is the impersonation target but the
// actor stays the admin; impersonation state held by a non-admin session is
// ignored and dropped.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(m.cookieName)
		if err != nil || cookie == "" {
			abortUnauthenticated(c)
			return
		}

		id, data, err := m.sessions.Resolve(c.Request.Context(), cookie)
		if err != nil {
			abortUnauthenticated(c)
			return
		}

		actor, err := m.users.GetByID(c.Request.Context(), data.UserID)
		if err != nil {
			m.destroy(c, cookie)
			abortUnauthenticated(c)
			return
		}
		if actor.IsDisabled {
			m.destroy(c, cookie)
			HandleAPIError(c, apperrors.ErrAccountDisabled)
			c.Abort()
			return
		}

		effective := actor
		impersonating := false
		if data.ViewAsUserID != 0 {
			target, err := m.users.GetByID(c.Request.Context(), data.ViewAsUserID)
			switch {
			case actor.Role != models.RoleAdmin, err != nil, target != nil && target.IsDisabled:
				// Stale or illegitimate impersonation state; fall back to the
				// actor's own identity.
				data.ViewAsUserID = 0
				if err := m.sessions.Update(c.Request.Context(), id, data); err != nil {
					logger.Error().Err(err).Msg("Failed to clear stale impersonation state")
				}
			default:
				effective = target
				impersonating = true
			}
		}

		c.Set(ContextSessionID, id)
		c.Set(ContextSessionData, data)
		c.Set(ContextActor, actor)
		c.Set(ContextEffectiveUser, effective)
		c.Set(ContextImpersonating, impersonating)
		c.Next()
	}
}

// OptionalSession resolves the session cookie like RequireSession but lets
// anonymous or invalid-session requests through without identity set.
func (m *AuthMiddleware) OptionalSession() gin.HandlerFunc {
	required := m.RequireSession()
	return func(c *gin.Context) {
		cookie, err := c.Cookie(m.cookieName)
		if err != nil || cookie == "" {
			c.Next()
			return
		}
		if _, _, err := m.sessions.Resolve(c.Request.Context(), cookie); err != nil {
			c.Next()
			return
		}
		required(c)
	}
}

// RequireAdmin allows only admin actors through. The check runs against the
// real actor, so an admin impersonating a learner keeps admin powers and a
// non-admin can never gain them.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Actor(c)
		if actor == nil || actor.Role != models.RoleAdmin {
			HandleAPIError(c, apperrors.ErrPermissionDenied)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) destroy(c *gin.Context, cookie string) {
	if err := m.sessions.Destroy(c.Request.Context(), cookie); err != nil {
		logger.Error().Err(err).Msg("Failed to destroy session")
	}
}

func abortUnauthenticated(c *gin.Context) {
	HandleAPIError(c, apperrors.ErrUnauthenticated)
	c.Abort()
}

// Actor returns the real authenticated user for the request.
func Actor(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextActor); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// EffectiveUser returns the identity the request acts as: the impersonation
// target while impersonating, otherwise the actor.
func EffectiveUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextEffectiveUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// Impersonating reports whether the request runs under an impersonated
// identity.
func Impersonating(c *gin.Context) bool {
	if v, ok := c.Get(ContextImpersonating); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// SessionData returns the resolved session state for the request.
func SessionData(c *gin.Context) *sessionstore.Data {
	if v, ok := c.Get(ContextSessionData); ok {
		if d, ok := v.(*sessionstore.Data); ok {
			return d
		}
	}
	return nil
}

// SessionID returns the resolved session store id for the request.
func SessionID(c *gin.Context) string {
	if v, ok := c.Get(ContextSessionID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
