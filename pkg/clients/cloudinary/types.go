package cloudinary

import "strings"

// ResourceType selects the upload pipeline for an asset.
type ResourceType string

const (
	ResourceTypeImage ResourceType = "image"
	ResourceTypeVideo ResourceType = "video"
)

// ResourceTypeFor maps a MIME type onto the CDN's resource taxonomy.
// Audio is served through the video pipeline.
func ResourceTypeFor(contentType string) ResourceType {
	normalized := strings.ToLower(strings.TrimSpace(contentType))

	if strings.HasPrefix(normalized, "video/") || strings.HasPrefix(normalized, "audio/") {
		return ResourceTypeVideo
	}

	return ResourceTypeImage
}

// UploadRequest describes an unsigned preset upload.
type UploadRequest struct {
	FileName     string
	Content      []byte
	ContentType  string
	ResourceType ResourceType
	Folder       string
	PublicID     string
}

// UploadResult is the CDN's record of an uploaded asset.
type UploadResult struct {
	PublicID     string `json:"public_id"`
	URL          string `json:"url"`
	SecureURL    string `json:"secure_url"`
	Format       string `json:"format"`
	ResourceType string `json:"resource_type"`
	Bytes        int64  `json:"bytes"`
	Etag         string `json:"etag"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// DownloadedAsset carries the payload bytes of a delivered asset.
type DownloadedAsset struct {
	Content     []byte
	ContentType string
}

// destroyResponse is the admin API's answer to a destroy call.
type destroyResponse struct {
	Result string `json:"result"`
}
