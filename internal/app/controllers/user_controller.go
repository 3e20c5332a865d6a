package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/app/models/dto"
	"github.com/speexify/speexify/internal/app/services"
	"github.com/speexify/speexify/internal/middleware"
	"github.com/speexify/speexify/internal/pkg/apperrors"
)

// UserController handles profile and directory endpoints.
type UserController struct {
	userService *services.UserService
}

// NewUserController creates a new UserController
func NewUserController(userService *services.UserService) *UserController {
	return &UserController{userService: userService}
}

// GetProfile handles GET /api/me. The returned profile follows the effective
// identity, so an impersonating admin sees the target's profile.
func (c *UserController) GetProfile(ctx *gin.Context) {
	effective := middleware.EffectiveUser(ctx)
	actor := middleware.Actor(ctx)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MeResponse{
		User:          dto.NewUserResponse(effective),
		Impersonating: middleware.Impersonating(ctx),
		RealUserID:    actor.ID,
	}))
}

// UpdateProfile handles PATCH /api/me, again against the effective identity.
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("invalid request body"))
		return
	}

	effective := middleware.EffectiveUser(ctx)
	user, err := c.userService.UpdateProfile(ctx.Request.Context(), effective.ID, req.Name, req.Timezone)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewUserResponse(user)))
}

// ChangePassword handles POST /api/me/password. Unlike the profile, this
// always targets the real actor: an impersonating admin changes their own
// password, never the target's.
func (c *UserController) ChangePassword(ctx *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("currentPassword and newPassword are required"))
		return
	}

	actor := middleware.Actor(ctx)
	if err := c.userService.ChangePassword(ctx.Request.Context(), actor.ID, req.CurrentPassword, req.NewPassword); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.OKResponse{OK: true}))
}

// Summary handles GET /api/me/summary for the effective identity.
func (c *UserController) Summary(ctx *gin.Context) {
	effective := middleware.EffectiveUser(ctx)
	summary, err := c.userService.Summary(ctx.Request.Context(), effective.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SummaryResponse{
		NextSession:    dto.NewSessionResponse(summary.NextSession),
		UpcomingCount:  summary.UpcomingCount,
		CompletedCount: summary.CompletedCount,
	}))
}

// ListUsers handles GET /api/users with an optional ?role= filter.
func (c *UserController) ListUsers(ctx *gin.Context) {
	var role *models.Role
	if raw := ctx.Query("role"); raw != "" {
		r := models.Role(raw)
		role = &r
	}

	users, err := c.userService.ListUsers(ctx.Request.Context(), role)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	responses := make([]*dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.NewUserResponse(user))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(responses))
}
