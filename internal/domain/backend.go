package domain

import (
	"fmt"
	"strings"
)

// StorageBackend identifies one of the two physical storage providers.
type StorageBackend string

const (
	// BackendTelegram is the bulk-file gateway.
	BackendTelegram StorageBackend = "telegram"
	// BackendCloudinary is the media-optimizing backend.
	BackendCloudinary StorageBackend = "cloudinary"
)

const (
	MaxTelegramFileSize   int64 = 1536 * 1024 * 1024 // 1.5 GiB
	MaxCloudinaryFileSize int64 = 10 * 1024 * 1024   // 10 MiB
)

// mediaContentTypes is the fixed allow-list routed to the media backend.
var mediaContentTypes = map[string]struct{}{
	"image/jpeg":       {},
	"image/jpg":        {},
	"image/png":        {},
	"image/gif":        {},
	"image/webp":       {},
	"image/svg+xml":    {},
	"image/bmp":        {},
	"image/avif":       {},
	"image/tiff":       {},
	"video/mp4":        {},
	"video/mpeg":       {},
	"video/webm":       {},
	"video/quicktime":  {},
	"video/x-msvideo":  {},
	"video/x-matroska": {},
	"audio/mpeg":       {},
	"audio/mp3":        {},
	"audio/wav":        {},
	"audio/x-wav":      {},
	"audio/ogg":        {},
	"audio/webm":       {},
	"audio/aac":        {},
	"audio/flac":       {},
}

// BackendForContentType maps every content type to exactly one backend:
// image/video/audio types on the allow-list go to Cloudinary, everything else
// (including empty and unknown types) goes to Telegram. Case-insensitive;
// media type parameters are ignored.
func BackendForContentType(contentType string) StorageBackend {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	if _, ok := mediaContentTypes[ct]; ok {
		return BackendCloudinary
	}

	return BackendTelegram
}

// MaxFileSize returns the byte limit for a backend.
func MaxFileSize(backend StorageBackend) int64 {
	if backend == BackendCloudinary {
		return MaxCloudinaryFileSize
	}
	return MaxTelegramFileSize
}

// ParseBackend validates a backend identifier from the wire.
func ParseBackend(s string) (StorageBackend, error) {
	switch StorageBackend(strings.ToLower(strings.TrimSpace(s))) {
	case BackendTelegram:
		return BackendTelegram, nil
	case BackendCloudinary:
		return BackendCloudinary, nil
	}
	return "", fmt.Errorf("unknown storage backend: %q", s)
}

// FormatFileSize renders a byte count in human readable units.
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
