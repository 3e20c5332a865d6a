package apperrors

import "errors"

// Common errors
var (
	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidDateTime = errors.New("invalid date/time")

	// Authentication errors
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")
	ErrGone             = errors.New("endpoint no longer available")

	// Rate limiting
	ErrRateLimited = errors.New("too many requests")
)

// User errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already registered")
)

// Session (lesson) errors
var (
	ErrSessionNotFound = errors.New("session not found")
)

// Verification code errors
var (
	ErrCodeNotFound  = errors.New("no pending code")
	ErrCodeExpired   = errors.New("code expired")
	ErrCodeMismatch  = errors.New("incorrect code")
	ErrCodeExhausted = errors.New("too many attempts")
)

// Impersonation errors
var (
	ErrImpersonateSelf     = errors.New("cannot impersonate yourself")
	ErrImpersonateDisabled = errors.New("cannot impersonate a disabled user")
)

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
}

// Error implements the error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with an underlying sentinel
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{Err: err, Message: message}
}

// NewBadRequestError creates an invalid-input error with a message
func NewBadRequestError(message string) error {
	return &CustomError{Err: ErrInvalidInput, Message: message}
}

// NewConflictError creates a conflict error with a message
func NewConflictError(message string) error {
	return &CustomError{Err: ErrConflict, Message: message}
}

// NewForbiddenError creates a permission-denied error with a message
func NewForbiddenError(message string) error {
	return &CustomError{Err: ErrPermissionDenied, Message: message}
}
