package telegramstore

import (
	"encoding/json"
	"time"
)

// File is the gateway's record of a stored object.
type File struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	MimeType    string    `json:"mimeType"`
	URL         string    `json:"url"`
	DownloadURL string    `json:"downloadUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	Folder      string    `json:"folder,omitempty"`
}

// UploadFileRequest describes a single-shot multipart upload.
type UploadFileRequest struct {
	FileName    string
	Content     []byte
	ContentType string
	Folder      string
	Metadata    map[string]interface{}
}

// DownloadedFile carries the payload bytes together with what the
// gateway reported about them.
type DownloadedFile struct {
	Content     []byte
	ContentType string
	FileName    string
}

// ListFilesRequest filters the file listing by folder.
type ListFilesRequest struct {
	Folder string
	Limit  int
}

// ListFilesResult is one page of a folder listing.
type ListFilesResult struct {
	Files   []File `json:"files"`
	Total   int64  `json:"total"`
	HasMore bool   `json:"hasMore"`
}

// envelope is the gateway's standard response wrapper. Data is kept
// raw so each operation can decode its own payload shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// downloadLocation is the JSON body variant of the download endpoint.
type downloadLocation struct {
	URL         string `json:"url"`
	DownloadURL string `json:"downloadUrl"`
}
