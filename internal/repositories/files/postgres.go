// Package files persists file metadata records in PostgreSQL.
package files

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nextmavens/filestore/internal/domain"
)

// DBTX is the subset of database/sql used by the repository, satisfied
// by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgresRepository implements domain.MetadataStore over a DBTX.
type PostgresRepository struct {
	db DBTX
}

var _ domain.MetadataStore = (*PostgresRepository)(nil)

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, project_id, file_path, file_name, file_size, content_type, backend, backend_file_id, file_url, etag, metadata, uploaded_at`

// Create upserts a file record keyed on the unique logical path. On
// conflict every column except the id is replaced, so re-uploading to
// a path keeps the record id stable while the content columns follow
// the latest upload.
func (r *PostgresRepository) Create(ctx context.Context, file *domain.StorageFile) (*domain.StorageFile, error) {
	metadata, err := marshalMetadata(file.Metadata)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO storage_files (` + fileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (file_path)
		DO UPDATE SET
			project_id = EXCLUDED.project_id,
			file_name = EXCLUDED.file_name,
			file_size = EXCLUDED.file_size,
			content_type = EXCLUDED.content_type,
			backend = EXCLUDED.backend,
			backend_file_id = EXCLUDED.backend_file_id,
			file_url = EXCLUDED.file_url,
			etag = EXCLUDED.etag,
			metadata = EXCLUDED.metadata,
			uploaded_at = EXCLUDED.uploaded_at
		RETURNING ` + fileColumns

	row := r.db.QueryRowContext(ctx, query,
		file.ID, file.ProjectID, file.FilePath, file.FileName, file.FileSize,
		file.ContentType, string(file.Backend), file.BackendFileID, file.FileURL,
		file.ETag, metadata, file.UploadedAt)

	stored, err := scanFile(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert file: %w", err)
	}

	return stored, nil
}

// GetByPath returns the record for a logical path, or (nil, nil) when
// none exists.
func (r *PostgresRepository) GetByPath(ctx context.Context, path string) (*domain.StorageFile, error) {
	query := `SELECT ` + fileColumns + ` FROM storage_files WHERE file_path = $1`

	file, err := scanFile(r.db.QueryRowContext(ctx, query, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select file by path: %w", err)
	}

	return file, nil
}

// GetByID returns the record with the given id, or (nil, nil) when
// none exists.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.StorageFile, error) {
	query := `SELECT ` + fileColumns + ` FROM storage_files WHERE id = $1`

	file, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select file by id: %w", err)
	}

	return file, nil
}

// ListByProject returns a project's records ordered newest-first.
func (r *PostgresRepository) ListByProject(ctx context.Context, params domain.ListByProjectParams) ([]*domain.StorageFile, error) {
	query := `
		SELECT ` + fileColumns + ` FROM storage_files
		WHERE project_id = $1
		ORDER BY uploaded_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, params.ProjectID, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return collectFiles(rows)
}

// ListByPathPrefix returns a project's records under a logical path
// prefix, ordered newest-first. LIKE wildcards in the prefix are
// escaped so they match literally.
func (r *PostgresRepository) ListByPathPrefix(ctx context.Context, params domain.ListByPathPrefixParams) ([]*domain.StorageFile, error) {
	query := `
		SELECT ` + fileColumns + ` FROM storage_files
		WHERE project_id = $1 AND file_path LIKE $2 ESCAPE '\'
		ORDER BY uploaded_at DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, params.ProjectID, escapeLike(params.Prefix)+"%", params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list files by prefix: %w", err)
	}

	return collectFiles(rows)
}

// ListByBackend returns a project's records stored on one backend,
// ordered newest-first.
func (r *PostgresRepository) ListByBackend(ctx context.Context, params domain.ListByBackendParams) ([]*domain.StorageFile, error) {
	query := `
		SELECT ` + fileColumns + ` FROM storage_files
		WHERE project_id = $1 AND backend = $2
		ORDER BY uploaded_at DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, params.ProjectID, string(params.Backend), params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list files by backend: %w", err)
	}

	return collectFiles(rows)
}

// UpdateMetadata merges the given keys into a record's metadata and
// returns the updated record, or (nil, nil) when the path has no
// record.
func (r *PostgresRepository) UpdateMetadata(ctx context.Context, path string, metadata map[string]interface{}) (*domain.StorageFile, error) {
	patch, err := marshalMetadata(metadata)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE storage_files
		SET metadata = metadata || $2::jsonb
		WHERE file_path = $1
		RETURNING ` + fileColumns

	file, err := scanFile(r.db.QueryRowContext(ctx, query, path, patch))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update file metadata: %w", err)
	}

	return file, nil
}

// Delete removes the record for a logical path and reports whether a
// record existed. Deleting an absent path is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, path string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM storage_files WHERE file_path = $1`, path)
	if err != nil {
		return false, fmt.Errorf("failed to delete file: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n > 0, nil
}

// DeleteAllForProject removes every record of a project and returns
// the number removed.
func (r *PostgresRepository) DeleteAllForProject(ctx context.Context, projectID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM storage_files WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete project files: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n, nil
}

// UsageTotal returns the summed byte size of a project's records.
func (r *PostgresRepository) UsageTotal(ctx context.Context, projectID int64) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(file_size), 0) FROM storage_files WHERE project_id = $1`

	if err := r.db.QueryRowContext(ctx, query, projectID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum usage: %w", err)
	}

	return total, nil
}

// UsageByBackend returns per-backend byte totals in one query.
func (r *PostgresRepository) UsageByBackend(ctx context.Context, projectID int64) (domain.StorageUsage, error) {
	query := `
		SELECT
			COALESCE(SUM(file_size) FILTER (WHERE backend = 'telegram'), 0),
			COALESCE(SUM(file_size) FILTER (WHERE backend = 'cloudinary'), 0),
			COALESCE(SUM(file_size), 0)
		FROM storage_files
		WHERE project_id = $1`

	var usage domain.StorageUsage
	if err := r.db.QueryRowContext(ctx, query, projectID).Scan(&usage.Telegram, &usage.Cloudinary, &usage.Total); err != nil {
		return domain.StorageUsage{}, fmt.Errorf("failed to sum usage by backend: %w", err)
	}

	return usage, nil
}

// FileCount returns the number of records a project has.
func (r *PostgresRepository) FileCount(ctx context.Context, projectID int64) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM storage_files WHERE project_id = $1`

	if err := r.db.QueryRowContext(ctx, query, projectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}

	return count, nil
}

// Stats derives a project's aggregate statistics in a single query.
func (r *PostgresRepository) Stats(ctx context.Context, projectID int64) (*domain.StorageStats, error) {
	query := `
		SELECT
			COALESCE(SUM(file_size), 0),
			COUNT(*),
			COALESCE(SUM(file_size) FILTER (WHERE backend = 'telegram'), 0),
			COUNT(*) FILTER (WHERE backend = 'telegram'),
			COALESCE(SUM(file_size) FILTER (WHERE backend = 'cloudinary'), 0),
			COUNT(*) FILTER (WHERE backend = 'cloudinary'),
			(SELECT file_name FROM storage_files WHERE project_id = $1 ORDER BY file_size DESC, uploaded_at DESC LIMIT 1),
			(SELECT file_size FROM storage_files WHERE project_id = $1 ORDER BY file_size DESC, uploaded_at DESC LIMIT 1),
			(SELECT backend FROM storage_files WHERE project_id = $1 ORDER BY file_size DESC, uploaded_at DESC LIMIT 1)
		FROM storage_files
		WHERE project_id = $1`

	var (
		stats          domain.StorageStats
		largestName    sql.NullString
		largestSize    sql.NullInt64
		largestBackend sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, projectID).Scan(
		&stats.TotalBytes, &stats.FileCount,
		&stats.Backends.Telegram.Bytes, &stats.Backends.Telegram.Count,
		&stats.Backends.Cloudinary.Bytes, &stats.Backends.Cloudinary.Count,
		&largestName, &largestSize, &largestBackend)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	if largestName.Valid {
		stats.LargestFile = &domain.LargestFile{
			FileName: largestName.String,
			FileSize: largestSize.Int64,
			Backend:  domain.StorageBackend(largestBackend.String),
		}
	}

	if stats.FileCount > 0 {
		stats.AverageSize = float64(stats.TotalBytes) / float64(stats.FileCount)
	}

	return &stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFile(row rowScanner) (*domain.StorageFile, error) {
	var (
		file     domain.StorageFile
		backend  string
		metadata []byte
	)

	err := row.Scan(&file.ID, &file.ProjectID, &file.FilePath, &file.FileName,
		&file.FileSize, &file.ContentType, &backend, &file.BackendFileID,
		&file.FileURL, &file.ETag, &metadata, &file.UploadedAt)
	if err != nil {
		return nil, err
	}

	file.Backend = domain.StorageBackend(backend)

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &file.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}

	return &file, nil
}

func collectFiles(rows *sql.Rows) ([]*domain.StorageFile, error) {
	defer rows.Close()

	var result []*domain.StorageFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, file)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func marshalMetadata(metadata map[string]interface{}) ([]byte, error) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	return encoded, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
