package domain

import "time"

// ProjectIdentity is the authenticated caller attached by the HTTP layer.
// TenantID is the string segment used in logical paths; ProjectID keys the
// metadata rows.
type ProjectIdentity struct {
	ProjectID int64  `json:"project_id"`
	TenantID  string `json:"tenant_id"`
}

// StorageFile is the durable record of one stored object. Re-uploading to the
// same logical path fully replaces the record (latest wins, no history).
type StorageFile struct {
	ID            string                 `json:"id"`
	ProjectID     int64                  `json:"project_id"`
	FilePath      string                 `json:"file_path"`
	FileName      string                 `json:"file_name"`
	FileSize      int64                  `json:"file_size"`
	ContentType   string                 `json:"content_type"`
	Backend       StorageBackend         `json:"backend"`
	BackendFileID string                 `json:"backend_file_id"`
	FileURL       string                 `json:"file_url"`
	ETag          string                 `json:"etag,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	UploadedAt    time.Time              `json:"uploaded_at"`
}

// UploadResult is what a backend reports after a transfer. It is consumed to
// build a StorageFile, never persisted verbatim.
type UploadResult struct {
	Backend       StorageBackend         `json:"backend"`
	BackendFileID string                 `json:"backend_file_id"`
	FileURL       string                 `json:"file_url"`
	DownloadURL   string                 `json:"download_url,omitempty"`
	FileName      string                 `json:"file_name"`
	FileSize      int64                  `json:"file_size"`
	ContentType   string                 `json:"content_type"`
	ETag          string                 `json:"etag,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// StorageStats is derived on every query, never cached.
type StorageStats struct {
	TotalBytes  int64            `json:"total_bytes"`
	FileCount   int64            `json:"file_count"`
	LargestFile *LargestFile     `json:"largest_file,omitempty"`
	AverageSize float64          `json:"average_size"`
	Backends    BackendBreakdown `json:"backends"`
}

type LargestFile struct {
	FileName string         `json:"file_name"`
	FileSize int64          `json:"file_size"`
	Backend  StorageBackend `json:"backend"`
}

type BackendBreakdown struct {
	Telegram   BackendUsage `json:"telegram"`
	Cloudinary BackendUsage `json:"cloudinary"`
}

type BackendUsage struct {
	Bytes int64 `json:"bytes"`
	Count int64 `json:"count"`
}

// StorageUsage is the per-backend byte totals for quota checks.
type StorageUsage struct {
	Telegram   int64 `json:"telegram"`
	Cloudinary int64 `json:"cloudinary"`
	Total      int64 `json:"total"`
}
