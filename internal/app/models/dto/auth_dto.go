package dto

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterStartRequest begins the email verification flow.
type RegisterStartRequest struct {
	Email string `json:"email" binding:"required"`
}

// RegisterCompleteRequest finishes registration with the mailed code.
type RegisterCompleteRequest struct {
	Email    string `json:"email" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

// LegacyRegisterRequest is the deprecated direct-registration body, kept
// behind the legacy-register toggle.
type LegacyRegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

// ForgotPasswordRequest begins the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest finishes the password reset flow.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// ChangePasswordRequest changes the authenticated user's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// MeResponse is the authenticated-identity payload. While an admin is
// impersonating, User describes the impersonated account and Impersonating
// is set; RealUserID always identifies the actual actor.
type MeResponse struct {
	User          *UserResponse `json:"user"`
	Impersonating bool          `json:"impersonating,omitempty"`
	RealUserID    int64         `json:"realUserId,omitempty"`
}
