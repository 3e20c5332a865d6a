package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/speexify/speexify/internal/app/models/dto"
	"github.com/speexify/speexify/internal/app/services"
	"github.com/speexify/speexify/internal/middleware"
	"github.com/speexify/speexify/internal/pkg/apperrors"
)

// SessionController handles session scheduling endpoints.
type SessionController struct {
	sessionService *services.SessionService
}

// NewSessionController creates a new SessionController
func NewSessionController(sessionService *services.SessionService) *SessionController {
	return &SessionController{sessionService: sessionService}
}

// List handles GET /api/sessions. ?view=teaching switches to the sessions
// the effective user teaches.
func (c *SessionController) List(ctx *gin.Context) {
	effective := middleware.EffectiveUser(ctx)
	teachingView := ctx.Query("view") == "teaching"

	sessions, err := c.sessionService.ListVisible(ctx.Request.Context(), effective,
		teachingView, middleware.Impersonating(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	responses := make([]*dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, dto.NewSessionResponse(session))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(responses))
}

// Create handles POST /api/sessions (admin).
func (c *SessionController) Create(ctx *gin.Context) {
	var req dto.CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("userId, title, date and startTime are required"))
		return
	}

	actor := middleware.Actor(ctx)
	session, err := c.sessionService.Create(ctx.Request.Context(), actor.ID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewSessionResponse(session)))
}

// Update handles PATCH /api/sessions/:id (admin).
func (c *SessionController) Update(ctx *gin.Context) {
	id, err := parseIDParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.UpdateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("invalid request body"))
		return
	}

	actor := middleware.Actor(ctx)
	session, err := c.sessionService.Update(ctx.Request.Context(), actor.ID, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewSessionResponse(session)))
}

// Delete handles DELETE /api/sessions/:id (admin).
func (c *SessionController) Delete(ctx *gin.Context) {
	id, err := parseIDParam(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	actor := middleware.Actor(ctx)
	if err := c.sessionService.Delete(ctx.Request.Context(), actor.ID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.OKResponse{OK: true}))
}

func parseIDParam(ctx *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError("invalid id")
	}
	return id, nil
}
