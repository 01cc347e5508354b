package domain

import "context"

type ListByProjectParams struct {
	ProjectID int64
	Limit     int
	Offset    int
}

type ListByPathPrefixParams struct {
	ProjectID int64
	Prefix    string
	Limit     int
}

type ListByBackendParams struct {
	ProjectID int64
	Backend   StorageBackend
	Limit     int
}

// MetadataStore is the durable record of every stored file. Create is an
// atomic upsert keyed on the unique logical path: re-uploading to the same
// path replaces the prior record wholesale. Point lookups return (nil, nil)
// when no record exists; listings are ordered newest-first.
type MetadataStore interface {
	Create(ctx context.Context, file *StorageFile) (*StorageFile, error)
	GetByPath(ctx context.Context, path string) (*StorageFile, error)
	GetByID(ctx context.Context, id string) (*StorageFile, error)

	ListByProject(ctx context.Context, params ListByProjectParams) ([]*StorageFile, error)
	ListByPathPrefix(ctx context.Context, params ListByPathPrefixParams) ([]*StorageFile, error)
	ListByBackend(ctx context.Context, params ListByBackendParams) ([]*StorageFile, error)

	UpdateMetadata(ctx context.Context, path string, metadata map[string]interface{}) (*StorageFile, error)
	Delete(ctx context.Context, path string) (bool, error)
	DeleteAllForProject(ctx context.Context, projectID int64) (int64, error)

	UsageTotal(ctx context.Context, projectID int64) (int64, error)
	UsageByBackend(ctx context.Context, projectID int64) (StorageUsage, error)
	FileCount(ctx context.Context, projectID int64) (int64, error)
	Stats(ctx context.Context, projectID int64) (*StorageStats, error)
}
