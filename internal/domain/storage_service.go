package domain

import "context"

type UploadParams struct {
	Project     ProjectIdentity
	LogicalPath string
	FileName    string
	Content     []byte
	ContentType string
	Metadata    map[string]interface{}
}

type UploadOutput struct {
	File       *StorageFile  `json:"file"`
	Result     *UploadResult `json:"result"`
	TotalUsage int64         `json:"total_usage"`
}

type DownloadParams struct {
	Project     ProjectIdentity
	LogicalPath string
	// Track writes a best-effort lastAccessedAt marker into the record's
	// metadata map; failures are logged, never raised.
	Track bool
}

type DownloadOutput struct {
	Content     []byte
	ContentType string
	FileSize    int64
	FileName    string
	Backend     StorageBackend
	FileURL     string
}

type ListFilesParams struct {
	Project ProjectIdentity
	// Prefix filters by leading substring of the logical path. It must carry
	// the caller's own tenant segment.
	Prefix  string
	Backend string
	Limit   int
	Offset  int
}

// StorageService composes scope validation, backend routing and the metadata
// store into the end-to-end storage flows.
type StorageService interface {
	UploadWithTracking(ctx context.Context, params UploadParams) (*UploadOutput, error)
	DownloadFromStorage(ctx context.Context, params DownloadParams) (*DownloadOutput, error)

	ExistsInStorage(ctx context.Context, project ProjectIdentity, logicalPath string) (bool, error)
	GetFileURL(ctx context.Context, project ProjectIdentity, logicalPath string) (string, error)

	ListFiles(ctx context.Context, params ListFilesParams) ([]*StorageFile, error)
	UpdateFileMetadata(ctx context.Context, project ProjectIdentity, logicalPath string, metadata map[string]interface{}) (*StorageFile, error)

	DeleteFromStorage(ctx context.Context, project ProjectIdentity, logicalPath string) (bool, error)
	DeleteAllProjectFiles(ctx context.Context, project ProjectIdentity) (int64, error)

	GetStorageStats(ctx context.Context, project ProjectIdentity) (*StorageStats, error)
	GetUsage(ctx context.Context, project ProjectIdentity) (StorageUsage, error)
}
