package telegramstore

import (
	"errors"
	"fmt"
)

// Error represents an API error response from the gateway
type Error struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Body       string `json:"body,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("telegram storage: %s (status: %d, request_id: %s)", e.Message, e.StatusCode, e.RequestID)
	}
	return fmt.Sprintf("telegram storage: %s (status: %d)", e.Message, e.StatusCode)
}

// IsNotFound returns true if the requested file does not exist
func (e *Error) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsAuthError returns true if the error is authentication-related
func (e *Error) IsAuthError() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsClientError returns true if the error is a client error (4xx)
func (e *Error) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError returns true if the error is a server error (5xx)
func (e *Error) IsServerError() bool {
	return e.StatusCode >= 500
}

// IsAPIError checks if an error is a gateway API error and returns it
func IsAPIError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
