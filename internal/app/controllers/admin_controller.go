package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/app/models/dto"
	"github.com/speexify/speexify/internal/app/repositories"
	"github.com/speexify/speexify/internal/app/services"
	"github.com/speexify/speexify/internal/middleware"
	"github.com/speexify/speexify/internal/pkg/apperrors"
	"github.com/speexify/speexify/internal/pkg/helpers"
	"github.com/speexify/speexify/internal/pkg/sessionstore"
)

// AdminController handles admin-only endpoints: session search, user
// management, impersonation and the workload report.
type AdminController struct {
	userService     *services.UserService
	sessionService  *services.SessionService
	workloadService *services.WorkloadService
	sessions        *sessionstore.Manager
}

// NewAdminController creates a new AdminController
func NewAdminController(
	userService *services.UserService,
	sessionService *services.SessionService,
	workloadService *services.WorkloadService,
	sessions *sessionstore.Manager,
) *AdminController {
	return &AdminController{
		userService:     userService,
		sessionService:  sessionService,
		workloadService: workloadService,
		sessions:        sessions,
	}
}

// SearchSessions handles GET /api/admin/sessions with free-text and
// participant/date filters plus pagination.
func (c *AdminController) SearchSessions(ctx *gin.Context) {
	limit, offset := helpers.ParseLimitOffset(ctx)
	filter := repositories.SessionFilter{
		Query:  ctx.Query("q"),
		Limit:  limit,
		Offset: offset,
	}

	var err error
	if filter.LearnerID, err = parseOptionalID(ctx, "learnerId"); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if filter.TeacherID, err = parseOptionalID(ctx, "teacherId"); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if filter.From, filter.To, err = parseDateWindow(ctx); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	details, total, err := c.sessionService.AdminSearch(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	items := make([]dto.SessionDetailResponse, 0, len(details))
	for _, detail := range details {
		items = append(items, dto.NewSessionDetailResponse(detail))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.AdminSessionListResponse{
		Items:   items,
		Total:   total,
		HasMore: int64(offset+len(items)) < total,
		Limit:   limit,
		Offset:  offset,
	}))
}

// ListUsers handles GET /api/admin/users
func (c *AdminController) ListUsers(ctx *gin.Context) {
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

// UpdateUser handles PATCH /api/admin/users/:id
func (c *AdminController) UpdateUser(ctx *gin.Context) {
	id, err := parseIDParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.AdminUpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("invalid request body"))
		return
	}

	patch := repositories.UserPatch{
		Name:                req.Name,
		Timezone:            req.Timezone,
		IsDisabled:          req.IsDisabled,
		RateHourlyCents:     req.RateHourlyCents,
		RatePerSessionCents: req.RatePerSessionCents,
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		patch.Role = &role
	}

	actor := middleware.Actor(ctx)
	user, err := c.userService.AdminUpdateUser(ctx.Request.Context(), actor.ID, id, patch)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewUserResponse(user)))
}

// Impersonate handles POST /api/admin/impersonate/:id, switching the
// session's effective identity to the target user.
func (c *AdminController) Impersonate(ctx *gin.Context) {
	targetID, err := parseIDParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	actor := middleware.Actor(ctx)
	target, err := c.userService.BeginImpersonation(ctx.Request.Context(), actor, targetID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	data := middleware.SessionData(ctx)
	data.ViewAsUserID = target.ID
	if err := c.sessions.Update(ctx.Request.Context(), middleware.SessionID(ctx), data); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MeResponse{
		User:          dto.NewUserResponse(target),
		Impersonating: true,
		RealUserID:    actor.ID,
	}))
}

// StopImpersonation handles POST /api/admin/impersonate/stop. Stopping when
// no impersonation is active is a no-op.
func (c *AdminController) StopImpersonation(ctx *gin.Context) {
	actor := middleware.Actor(ctx)
	data := middleware.SessionData(ctx)

	if data.ViewAsUserID != 0 {
		c.userService.EndImpersonation(ctx.Request.Context(), actor.ID, data.ViewAsUserID)
		data.ViewAsUserID = 0
		if err := c.sessions.Update(ctx.Request.Context(), middleware.SessionID(ctx), data); err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.MeResponse{
		User:       dto.NewUserResponse(actor),
		RealUserID: actor.ID,
	}))
}

// TeacherWorkload handles GET /api/admin/teachers/workload
func (c *AdminController) TeacherWorkload(ctx *gin.Context) {
	teacherID, err := parseOptionalID(ctx, "teacherId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	from, to, err := parseDateWindow(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	report, err := c.workloadService.Report(ctx.Request.Context(), teacherID, from, to)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(report))
}

func parseOptionalID(ctx *gin.Context, name string) (*int64, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperrors.NewBadRequestError("invalid " + name)
	}
	return &id, nil
}

// parseDateWindow reads optional from/to date filters. Both bounds are
// inclusive, so "to" covers the whole named day.
func parseDateWindow(ctx *gin.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := ctx.Query("from"); raw != "" {
		t, err := helpers.ParseDate(raw)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if raw := ctx.Query("to"); raw != "" {
		t, err := helpers.ParseDate(raw)
		if err != nil {
			return nil, nil, err
		}
		end := t.Add(24*time.Hour - time.Second)
		to = &end
	}
	return from, to, nil
}
