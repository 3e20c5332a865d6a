package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/speexify/speexify/internal/app/models/dto"
	"github.com/speexify/speexify/internal/pkg/apperrors"
	"github.com/speexify/speexify/internal/pkg/logger"
)

// HandleAPIError maps an application error onto the standard error envelope
// and writes it. Unrecognized errors become an opaque 500.
func HandleAPIError(c *gin.Context, err error) {
	status, detail := classifyError(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("Unhandled error")
	}
	c.JSON(status, dto.NewErrorResponse(detail))
}

func classifyError(err error) (int, *dto.ErrorDetail) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidDateTime):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeInvalidDateTime, err.Error())
	case errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrInvalidEmail),
		errors.Is(err, apperrors.ErrInvalidPassword),
		errors.Is(err, apperrors.ErrImpersonateSelf),
		errors.Is(err, apperrors.ErrImpersonateDisabled),
		errors.Is(err, apperrors.ErrCodeNotFound),
		errors.Is(err, apperrors.ErrCodeExpired),
		errors.Is(err, apperrors.ErrCodeMismatch):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, err.Error())
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeUnauthorized, err.Error())

	case errors.Is(err, apperrors.ErrAccountDisabled):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeAccountDisabled, err.Error())
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, err.Error())

	case errors.Is(err, apperrors.ErrResourceNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrSessionNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, err.Error())

	case errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrEmailAlreadyExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, err.Error())

	case errors.Is(err, apperrors.ErrGone):
		return http.StatusGone, dto.NewErrorDetail(dto.ErrorCodeResourceGone, err.Error())

	case errors.Is(err, apperrors.ErrRateLimited),
		errors.Is(err, apperrors.ErrCodeExhausted):
		return http.StatusTooManyRequests, dto.NewErrorDetail(dto.ErrorCodeRateLimited, err.Error())

	default:
		return http.StatusInternalServerError,
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "internal server error")
	}
}
