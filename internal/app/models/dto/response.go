package dto

import "time"

// APIResponse is the standard success/error envelope for API endpoints.
type APIResponse struct {
	Success   bool         `json:"success" example:"true"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewSuccessResponse wraps data in a success envelope
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// OKResponse is a minimal acknowledgment body.
type OKResponse struct {
	OK bool `json:"ok" example:"true"`
}
