package domain

import "context"

type UploadFileParams struct {
	Path        ScopedPath
	FileName    string
	Content     []byte
	ContentType string
}

type DownloadFileParams struct {
	Backend       StorageBackend
	BackendFileID string
	// ContentType is the stored record's content type; the media backend
	// derives its resource type (image vs video) from it.
	ContentType string
}

type DeleteFileParams struct {
	Backend       StorageBackend
	BackendFileID string
	ContentType   string
}

type ExistsFileParams struct {
	Backend       StorageBackend
	BackendFileID string
	ContentType   string
}

// BackendFile is the payload fetched back from a backend.
type BackendFile struct {
	Content     []byte
	ContentType string
	FileName    string
}

// BackendRouter exposes the uniform storage contract over the two backends.
// Upload selects the backend from the content type and enforces the selected
// backend's size limit before any transfer; the other operations dispatch on
// an explicit backend tag.
type BackendRouter interface {
	Upload(ctx context.Context, params UploadFileParams) (*UploadResult, error)
	Download(ctx context.Context, params DownloadFileParams) (*BackendFile, error)
	Delete(ctx context.Context, params DeleteFileParams) error
	Exists(ctx context.Context, params ExistsFileParams) (bool, error)
}
