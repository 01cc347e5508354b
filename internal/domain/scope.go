package domain

import (
	"path"
	"strings"
)

// MaxLogicalPathLength bounds the whole "<tenant>:<path>" string.
const MaxLogicalPathLength = 500

// ScopedPath is a validated logical path split into its two parts. SubPath is
// slash-normalized and always starts with "/".
type ScopedPath struct {
	TenantID string
	SubPath  string
}

// String returns the logical form "<tenant>:<sub-path>".
func (p ScopedPath) String() string {
	return p.TenantID + ":" + p.SubPath
}

// Dir returns the directory portion of the sub-path without the leading
// slash, used to derive backend folders. Root-level files yield "".
func (p ScopedPath) Dir() string {
	dir := path.Dir(p.SubPath)
	if dir == "/" {
		return ""
	}
	return strings.TrimPrefix(dir, "/")
}

var reservedPathSegments = map[string]struct{}{
	"system":   {},
	"admin":    {},
	"internal": {},
	"global":   {},
	"*":        {},
	".":        {},
}

// forbiddenPathChars are rejected anywhere in the path segment, together with
// ".." and the NUL byte.
const forbiddenPathChars = "<>:|?*\x00"

// ValidateScopedPath parses "<tenant>:<absolute-path>" and enforces tenant
// isolation and path safety. It is a pure function: no I/O, no shared state,
// and the input is never mutated. The tenant equality check runs before
// anything downstream can touch storage.
func ValidateScopedPath(logicalPath, callerTenantID string) (ScopedPath, error) {
	if len(logicalPath) > MaxLogicalPathLength {
		return ScopedPath{}, ErrPathTooLong
	}

	tenantID, subPath, found := strings.Cut(logicalPath, ":")
	if !found || strings.TrimSpace(tenantID) == "" {
		return ScopedPath{}, ErrMissingTenantSegment
	}

	// A hostile path reports traversal even when the tenant does not match.
	if strings.Contains(subPath, "..") || strings.ContainsAny(subPath, forbiddenPathChars) {
		return ScopedPath{}, ErrPathTraversalDetected
	}

	if tenantID != callerTenantID {
		return ScopedPath{}, ErrCrossTenantAccess
	}

	normalized := normalizeSubPath(subPath)
	if isReservedSegment(firstPathSegment(normalized)) {
		return ScopedPath{}, ErrReservedPath
	}

	return ScopedPath{TenantID: tenantID, SubPath: normalized}, nil
}

func normalizeSubPath(subPath string) string {
	if !strings.HasPrefix(subPath, "/") {
		subPath = "/" + subPath
	}
	return path.Clean(subPath)
}

func firstPathSegment(normalized string) string {
	trimmed := strings.TrimPrefix(normalized, "/")
	if i := strings.Index(trimmed, "/"); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

func isReservedSegment(segment string) bool {
	if segment == "" {
		return true
	}
	_, ok := reservedPathSegments[strings.ToLower(segment)]
	return ok
}
