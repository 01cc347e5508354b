package cloudinary

import (
	"errors"
	"fmt"
)

// ErrNoAdminCredentials is returned by Destroy when the client was
// configured without an API key and secret. Unsigned uploads work
// without them, destroys do not.
var ErrNoAdminCredentials = errors.New("cloudinary: admin API credentials are not configured")

// Error represents an API error response from the media CDN
type Error struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Body       string `json:"body,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("cloudinary: %s (status: %d)", e.Message, e.StatusCode)
}

// IsNotFound returns true if the asset does not exist
func (e *Error) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsClientError returns true if the error is a client error (4xx)
func (e *Error) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError returns true if the error is a server error (5xx)
func (e *Error) IsServerError() bool {
	return e.StatusCode >= 500
}

// IsAPIError checks if an error is a media CDN API error and returns it
func IsAPIError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
