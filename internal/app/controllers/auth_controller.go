package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/app/models/dto"
	"github.com/speexify/speexify/internal/app/services"
	"github.com/speexify/speexify/internal/middleware"
	"github.com/speexify/speexify/internal/pkg/apperrors"
	"github.com/speexify/speexify/internal/pkg/logger"
	"github.com/speexify/speexify/internal/pkg/sessionstore"
)

// CookieSettings carries the session-cookie parameters shared by the
// handlers that issue or clear cookies.
type CookieSettings struct {
	Name   string
	MaxAge int
	Secure bool
}

// AuthController handles registration, login and password recovery.
type AuthController struct {
	authService *services.AuthService
	sessions    *sessionstore.Manager
	cookie      CookieSettings
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, sessions *sessionstore.Manager, cookie CookieSettings) *AuthController {
	return &AuthController{
		authService: authService,
		sessions:    sessions,
		cookie:      cookie,
	}
}

// RegisterStart handles POST /api/auth/register/start
func (c *AuthController) RegisterStart(ctx *gin.Context) {
	var req dto.RegisterStartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("email is required"))
		return
	}
	if err := c.authService.RegisterStart(ctx.Request.Context(), req.Email); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.OKResponse{OK: true}))
}

// RegisterComplete handles POST /api/auth/register/complete. A successful
// registration also logs the new user in.
func (c *AuthController) RegisterComplete(ctx *gin.Context) {
	var req dto.RegisterCompleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("email, code and password are required"))
		return
	}
	user, err := c.authService.RegisterComplete(ctx.Request.Context(), req.Email, req.Code, req.Password, req.Name)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if err := c.startSession(ctx, user); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.MeResponse{
		User:       dto.NewUserResponse(user),
		RealUserID: user.ID,
	}))
}

// LegacyRegister handles POST /api/auth/register, the deprecated direct
// registration kept behind a config toggle.
func (c *AuthController) LegacyRegister(ctx *gin.Context) {
	var req dto.LegacyRegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("email and password are required"))
		return
	}
	user, err := c.authService.LegacyRegister(ctx.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if err := c.startSession(ctx, user); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.MeResponse{
		User:       dto.NewUserResponse(user),
		RealUserID: user.ID,
	}))
}

// Login handles POST /api/auth/login
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("email and password are required"))
		return
	}
	user, err := c.authService.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if err := c.startSession(ctx, user); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MeResponse{
		User:       dto.NewUserResponse(user),
		RealUserID: user.ID,
	}))
}

// Logout handles POST /api/auth/logout
func (c *AuthController) Logout(ctx *gin.Context) {
	if cookie, err := ctx.Cookie(c.cookie.Name); err == nil && cookie != "" {
		if err := c.sessions.Destroy(ctx.Request.Context(), cookie); err != nil {
			logger.Error().Err(err).Msg("Failed to destroy session on logout")
		}
	}
	c.clearCookie(ctx)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.OKResponse{OK: true}))
}

// Me handles GET /api/auth/me. Anonymous requests get a null user instead of
// an error so clients can probe their login state with one call.
func (c *AuthController) Me(ctx *gin.Context) {
	effective := middleware.EffectiveUser(ctx)
	if effective == nil {
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MeResponse{User: nil}))
		return
	}
	actor := middleware.Actor(ctx)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MeResponse{
		User:          dto.NewUserResponse(effective),
		Impersonating: middleware.Impersonating(ctx),
		RealUserID:    actor.ID,
	}))
}

// ForgotPassword handles POST /api/auth/password/forgot
func (c *AuthController) ForgotPassword(ctx *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("email is required"))
		return
	}
	if err := c.authService.ForgotPassword(ctx.Request.Context(), req.Email); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.OKResponse{OK: true}))
}

// ResetPassword handles POST /api/auth/password/reset
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("email, code and newPassword are required"))
		return
	}
	if err := c.authService.ResetPassword(ctx.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.OKResponse{OK: true}))
}

func (c *AuthController) startSession(ctx *gin.Context, user *models.User) error {
	value, err := c.sessions.Start(ctx.Request.Context(), user.ID)
	if err != nil {
		return err
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.cookie.Name, value, c.cookie.MaxAge, "/", "", c.cookie.Secure, true)
	return nil
}

func (c *AuthController) clearCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.cookie.Name, "", -1, "/", "", c.cookie.Secure, true)
}
