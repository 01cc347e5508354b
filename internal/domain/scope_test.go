package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateScopedPath(t *testing.T) {
	tests := []struct {
		name        string
		logicalPath string
		tenantID    string
		wantSubPath string
		wantErr     error
	}{
		{
			name:        "simple file",
			logicalPath: "proj-1:/uploads/photo.jpg",
			tenantID:    "proj-1",
			wantSubPath: "/uploads/photo.jpg",
		},
		{
			name:        "root level file",
			logicalPath: "proj-1:/readme.txt",
			tenantID:    "proj-1",
			wantSubPath: "/readme.txt",
		},
		{
			name:        "missing leading slash is normalized",
			logicalPath: "proj-1:uploads/photo.jpg",
			tenantID:    "proj-1",
			wantSubPath: "/uploads/photo.jpg",
		},
		{
			name:        "duplicate slashes are normalized",
			logicalPath: "proj-1://uploads///photo.jpg",
			tenantID:    "proj-1",
			wantSubPath: "/uploads/photo.jpg",
		},
		{
			name:        "no separator",
			logicalPath: "uploads/photo.jpg",
			tenantID:    "proj-1",
			wantErr:     ErrMissingTenantSegment,
		},
		{
			name:        "empty tenant segment",
			logicalPath: ":/uploads/photo.jpg",
			tenantID:    "proj-1",
			wantErr:     ErrMissingTenantSegment,
		},
		{
			name:        "cross tenant access",
			logicalPath: "proj-2:/uploads/photo.jpg",
			tenantID:    "proj-1",
			wantErr:     ErrCrossTenantAccess,
		},
		{
			name:        "traversal",
			logicalPath: "proj-1:/../../etc/passwd",
			tenantID:    "proj-1",
			wantErr:     ErrPathTraversalDetected,
		},
		{
			name:        "traversal wins over tenant mismatch",
			logicalPath: "proj-2:/../../etc/passwd",
			tenantID:    "proj-1",
			wantErr:     ErrPathTraversalDetected,
		},
		{
			name:        "embedded traversal",
			logicalPath: "proj-1:/uploads/../secrets.txt",
			tenantID:    "proj-1",
			wantErr:     ErrPathTraversalDetected,
		},
		{
			name:        "null byte",
			logicalPath: "proj-1:/uploads/a\x00.txt",
			tenantID:    "proj-1",
			wantErr:     ErrPathTraversalDetected,
		},
		{
			name:        "second colon in path segment",
			logicalPath: "proj-1:/uploads/a:b.txt",
			tenantID:    "proj-1",
			wantErr:     ErrPathTraversalDetected,
		},
		{
			name:        "wildcard character",
			logicalPath: "proj-1:/uploads/*.jpg",
			tenantID:    "proj-1",
			wantErr:     ErrPathTraversalDetected,
		},
		{
			name:        "angle bracket",
			logicalPath: "proj-1:/uploads/<script>.js",
			tenantID:    "proj-1",
			wantErr:     ErrPathTraversalDetected,
		},
		{
			name:        "pipe and question mark",
			logicalPath: "proj-1:/uploads/a|b?.txt",
			tenantID:    "proj-1",
			wantErr:     ErrPathTraversalDetected,
		},
		{
			name:        "reserved system segment",
			logicalPath: "proj-1:/system/config.json",
			tenantID:    "proj-1",
			wantErr:     ErrReservedPath,
		},
		{
			name:        "reserved admin segment case insensitive",
			logicalPath: "proj-1:/Admin/users.csv",
			tenantID:    "proj-1",
			wantErr:     ErrReservedPath,
		},
		{
			name:        "reserved internal segment",
			logicalPath: "proj-1:/internal/keys",
			tenantID:    "proj-1",
			wantErr:     ErrReservedPath,
		},
		{
			name:        "reserved global segment",
			logicalPath: "proj-1:/global",
			tenantID:    "proj-1",
			wantErr:     ErrReservedPath,
		},
		{
			name:        "empty path segment",
			logicalPath: "proj-1:",
			tenantID:    "proj-1",
			wantErr:     ErrReservedPath,
		},
		{
			name:        "bare slash",
			logicalPath: "proj-1:/",
			tenantID:    "proj-1",
			wantErr:     ErrReservedPath,
		},
		{
			name:        "reserved name deeper in the path is allowed",
			logicalPath: "proj-1:/uploads/system/notes.txt",
			tenantID:    "proj-1",
			wantSubPath: "/uploads/system/notes.txt",
		},
		{
			name:        "segment sharing a reserved prefix is allowed",
			logicalPath: "proj-1:/systems/design.pdf",
			tenantID:    "proj-1",
			wantSubPath: "/systems/design.pdf",
		},
		{
			name:        "path too long",
			logicalPath: "proj-1:/" + strings.Repeat("a", MaxLogicalPathLength),
			tenantID:    "proj-1",
			wantErr:     ErrPathTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scoped, err := ValidateScopedPath(tt.logicalPath, tt.tenantID)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ValidateScopedPath(%q, %q) error = %v, want %v", tt.logicalPath, tt.tenantID, err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("ValidateScopedPath(%q, %q) unexpected error: %v", tt.logicalPath, tt.tenantID, err)
			}
			if scoped.TenantID != tt.tenantID {
				t.Errorf("TenantID = %q, want %q", scoped.TenantID, tt.tenantID)
			}
			if scoped.SubPath != tt.wantSubPath {
				t.Errorf("SubPath = %q, want %q", scoped.SubPath, tt.wantSubPath)
			}
		})
	}
}

func TestValidateScopedPathDoesNotMutateInput(t *testing.T) {
	logicalPath := "proj-1://uploads//photo.jpg"

	scoped, err := ValidateScopedPath(logicalPath, "proj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if logicalPath != "proj-1://uploads//photo.jpg" {
		t.Errorf("input mutated: %q", logicalPath)
	}
	if scoped.String() != "proj-1:/uploads/photo.jpg" {
		t.Errorf("String() = %q, want %q", scoped.String(), "proj-1:/uploads/photo.jpg")
	}
}

func TestScopedPathDir(t *testing.T) {
	tests := []struct {
		subPath string
		want    string
	}{
		{"/uploads/photo.jpg", "uploads"},
		{"/uploads/2024/photo.jpg", "uploads/2024"},
		{"/photo.jpg", ""},
	}

	for _, tt := range tests {
		p := ScopedPath{TenantID: "proj-1", SubPath: tt.subPath}
		if got := p.Dir(); got != tt.want {
			t.Errorf("Dir(%q) = %q, want %q", tt.subPath, got, tt.want)
		}
	}
}
