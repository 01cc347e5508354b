package managers

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/nextmavens/filestore/internal/domain"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type StorageManagerDependencies struct {
	Router domain.BackendRouter
	Store  domain.MetadataStore
}

type storageManager struct {
	router domain.BackendRouter
	store  domain.MetadataStore
}

// NewStorageManager composes the backend router and the metadata store
// into the storage service.
func NewStorageManager(deps StorageManagerDependencies) domain.StorageService {
	return &storageManager{
		router: deps.Router,
		store:  deps.Store,
	}
}

// UploadWithTracking validates the path, transfers the content to the
// routed backend, persists the metadata record and returns it together
// with the project's fresh usage total.
func (m *storageManager) UploadWithTracking(ctx context.Context, params domain.UploadParams) (*domain.UploadOutput, error) {
	scoped, err := domain.ValidateScopedPath(params.LogicalPath, params.Project.TenantID)
	if err != nil {
		return nil, err
	}

	fileName := params.FileName
	if fileName == "" {
		fileName = path.Base(scoped.SubPath)
	}

	contentType := params.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := m.router.Upload(ctx, domain.UploadFileParams{
		Path:        scoped,
		FileName:    fileName,
		Content:     params.Content,
		ContentType: contentType,
	})
	if err != nil {
		return nil, err
	}

	stored, err := m.store.Create(ctx, &domain.StorageFile{
		ID:            xid.New().String(),
		ProjectID:     params.Project.ProjectID,
		FilePath:      scoped.String(),
		FileName:      result.FileName,
		FileSize:      result.FileSize,
		ContentType:   result.ContentType,
		Backend:       result.Backend,
		BackendFileID: result.BackendFileID,
		FileURL:       result.FileURL,
		ETag:          result.ETag,
		Metadata:      mergeMetadata(params.Metadata, result.Metadata),
		UploadedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist file record: %w", err)
	}

	totalUsage, err := m.store.UsageTotal(ctx, params.Project.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage total: %w", err)
	}

	log.Info().
		Str("path", stored.FilePath).
		Str("backend", string(stored.Backend)).
		Int64("size", stored.FileSize).
		Msg("file uploaded")

	return &domain.UploadOutput{
		File:       stored,
		Result:     result,
		TotalUsage: totalUsage,
	}, nil
}

// DownloadFromStorage resolves the record for a logical path and
// fetches the payload from the backend that holds it.
func (m *storageManager) DownloadFromStorage(ctx context.Context, params domain.DownloadParams) (*domain.DownloadOutput, error) {
	scoped, err := domain.ValidateScopedPath(params.LogicalPath, params.Project.TenantID)
	if err != nil {
		return nil, err
	}

	record, err := m.store.GetByPath(ctx, scoped.String())
	if err != nil {
		return nil, fmt.Errorf("failed to look up file record: %w", err)
	}
	if record == nil {
		return nil, domain.ErrFileNotFound
	}

	file, err := m.router.Download(ctx, domain.DownloadFileParams{
		Backend:       record.Backend,
		BackendFileID: record.BackendFileID,
		ContentType:   record.ContentType,
	})
	if err != nil {
		return nil, err
	}

	if params.Track {
		m.trackAccess(ctx, record.FilePath)
	}

	return &domain.DownloadOutput{
		Content:     file.Content,
		ContentType: firstNonEmpty(file.ContentType, record.ContentType),
		FileSize:    int64(len(file.Content)),
		FileName:    record.FileName,
		Backend:     record.Backend,
		FileURL:     record.FileURL,
	}, nil
}

// ExistsInStorage reports whether a logical path has both a record and
// a live backend object behind it.
func (m *storageManager) ExistsInStorage(ctx context.Context, project domain.ProjectIdentity, logicalPath string) (bool, error) {
	scoped, err := domain.ValidateScopedPath(logicalPath, project.TenantID)
	if err != nil {
		return false, err
	}

	record, err := m.store.GetByPath(ctx, scoped.String())
	if err != nil {
		return false, fmt.Errorf("failed to look up file record: %w", err)
	}
	if record == nil {
		return false, nil
	}

	return m.router.Exists(ctx, domain.ExistsFileParams{
		Backend:       record.Backend,
		BackendFileID: record.BackendFileID,
		ContentType:   record.ContentType,
	})
}

// GetFileURL returns the stored access URL without touching the
// backend. A path with no record yields an empty URL, not an error.
func (m *storageManager) GetFileURL(ctx context.Context, project domain.ProjectIdentity, logicalPath string) (string, error) {
	scoped, err := domain.ValidateScopedPath(logicalPath, project.TenantID)
	if err != nil {
		return "", err
	}

	record, err := m.store.GetByPath(ctx, scoped.String())
	if err != nil {
		return "", fmt.Errorf("failed to look up file record: %w", err)
	}
	if record == nil {
		return "", nil
	}

	return record.FileURL, nil
}

// ListFiles returns a project's records newest-first, filtered by path
// prefix or backend when requested.
func (m *storageManager) ListFiles(ctx context.Context, params domain.ListFilesParams) ([]*domain.StorageFile, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	if params.Prefix != "" {
		scoped, err := domain.ValidateScopedPath(params.Prefix, params.Project.TenantID)
		if err != nil {
			return nil, err
		}

		return m.store.ListByPathPrefix(ctx, domain.ListByPathPrefixParams{
			ProjectID: params.Project.ProjectID,
			Prefix:    scoped.String(),
			Limit:     limit,
		})
	}

	if params.Backend != "" {
		backend, err := domain.ParseBackend(params.Backend)
		if err != nil {
			return nil, err
		}

		return m.store.ListByBackend(ctx, domain.ListByBackendParams{
			ProjectID: params.Project.ProjectID,
			Backend:   backend,
			Limit:     limit,
		})
	}

	return m.store.ListByProject(ctx, domain.ListByProjectParams{
		ProjectID: params.Project.ProjectID,
		Limit:     limit,
		Offset:    offset,
	})
}

// UpdateFileMetadata merges caller keys into a record's metadata.
func (m *storageManager) UpdateFileMetadata(ctx context.Context, project domain.ProjectIdentity, logicalPath string, metadata map[string]interface{}) (*domain.StorageFile, error) {
	scoped, err := domain.ValidateScopedPath(logicalPath, project.TenantID)
	if err != nil {
		return nil, err
	}

	record, err := m.store.UpdateMetadata(ctx, scoped.String(), metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to update file metadata: %w", err)
	}
	if record == nil {
		return nil, domain.ErrFileNotFound
	}

	return record, nil
}

// DeleteFromStorage removes the backend object first, then the record.
// Deleting an absent path reports false without error.
func (m *storageManager) DeleteFromStorage(ctx context.Context, project domain.ProjectIdentity, logicalPath string) (bool, error) {
	scoped, err := domain.ValidateScopedPath(logicalPath, project.TenantID)
	if err != nil {
		return false, err
	}

	record, err := m.store.GetByPath(ctx, scoped.String())
	if err != nil {
		return false, fmt.Errorf("failed to look up file record: %w", err)
	}
	if record == nil {
		return false, nil
	}

	if err := m.router.Delete(ctx, domain.DeleteFileParams{
		Backend:       record.Backend,
		BackendFileID: record.BackendFileID,
		ContentType:   record.ContentType,
	}); err != nil {
		return false, err
	}

	existed, err := m.store.Delete(ctx, record.FilePath)
	if err != nil {
		return false, fmt.Errorf("failed to delete file record: %w", err)
	}

	log.Info().
		Str("path", record.FilePath).
		Str("backend", string(record.Backend)).
		Msg("file deleted")

	return existed, nil
}

// DeleteAllProjectFiles purges every record of a project and returns
// the number removed. Backend objects are left to expire through their
// own retention; only the metadata is dropped here.
func (m *storageManager) DeleteAllProjectFiles(ctx context.Context, project domain.ProjectIdentity) (int64, error) {
	count, err := m.store.DeleteAllForProject(ctx, project.ProjectID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete project files: %w", err)
	}

	log.Info().
		Int64("project_id", project.ProjectID).
		Int64("count", count).
		Msg("project files purged")

	return count, nil
}

// GetStorageStats derives the project's aggregate statistics.
func (m *storageManager) GetStorageStats(ctx context.Context, project domain.ProjectIdentity) (*domain.StorageStats, error) {
	stats, err := m.store.Stats(ctx, project.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate storage stats: %w", err)
	}

	return stats, nil
}

// GetUsage returns the per-backend byte totals.
func (m *storageManager) GetUsage(ctx context.Context, project domain.ProjectIdentity) (domain.StorageUsage, error) {
	usage, err := m.store.UsageByBackend(ctx, project.ProjectID)
	if err != nil {
		return domain.StorageUsage{}, fmt.Errorf("failed to read storage usage: %w", err)
	}

	return usage, nil
}

// trackAccess stamps lastAccessedAt into the record metadata. Failures
// only log: access tracking must never break a download.
func (m *storageManager) trackAccess(ctx context.Context, filePath string) {
	_, err := m.store.UpdateMetadata(ctx, filePath, map[string]interface{}{
		"lastAccessedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("path", filePath).
			Msg("failed to record file access")
	}
}

func mergeMetadata(caller, backend map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(caller)+len(backend))
	for k, v := range caller {
		merged[k] = v
	}
	for k, v := range backend {
		merged[k] = v
	}
	return merged
}
