package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Scope errors are client-input errors: surfaced to the caller, never
// retried.
var (
	ErrMissingTenantSegment  = errors.New("logical path is missing its tenant segment")
	ErrCrossTenantAccess     = errors.New("logical path belongs to another tenant")
	ErrPathTraversalDetected = errors.New("logical path contains traversal or forbidden characters")
	ErrReservedPath          = errors.New("logical path uses a reserved segment")
	ErrPathTooLong           = errors.New("logical path exceeds the maximum length")
)

// ErrFileNotFound signals a download against a logical path with no metadata
// record. Read conveniences return zero values instead of this error.
var ErrFileNotFound = errors.New("file not found in storage")

// IsScopeError reports whether err came out of logical path validation.
func IsScopeError(err error) bool {
	return errors.Is(err, ErrMissingTenantSegment) ||
		errors.Is(err, ErrCrossTenantAccess) ||
		errors.Is(err, ErrPathTraversalDetected) ||
		errors.Is(err, ErrReservedPath) ||
		errors.Is(err, ErrPathTooLong)
}

// FileTooLargeError is raised before any network transfer when content
// exceeds the selected backend's size limit.
type FileTooLargeError struct {
	Backend StorageBackend
	Size    int64
	Limit   int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file size %s exceeds the %s backend limit of %s",
		FormatFileSize(e.Size), e.Backend, FormatFileSize(e.Limit))
}

// MissingCredentialsError is a fatal configuration error, raised at client
// construction rather than on first use.
type MissingCredentialsError struct {
	Backend StorageBackend
	Missing []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("%s backend is not configured: missing %s",
		e.Backend, strings.Join(e.Missing, ", "))
}
