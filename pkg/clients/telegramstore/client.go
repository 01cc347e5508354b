// Package telegramstore provides a client for the telegram-backed bulk
// storage gateway API.
package telegramstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the bulk storage gateway.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// ClientConfig holds the connection settings for the gateway.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration. The timeout
// accommodates uploads in the gigabyte range.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:   10 * time.Minute,
		UserAgent: "filestore-client/1.0",
	}
}

// ClientOption configures the client
type ClientOption func(*ClientConfig)

// WithBaseURL sets the gateway base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *ClientConfig) {
		c.BaseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAPIKey sets the bearer token used to authenticate requests
func WithAPIKey(apiKey string) ClientOption {
	return func(c *ClientConfig) {
		c.APIKey = apiKey
	}
}

// WithTimeout overrides the default request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithHTTPClient supplies a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *ClientConfig) {
		c.HTTPClient = client
	}
}

// NewClient creates a gateway client with the given options
func NewClient(options ...ClientOption) *Client {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}
}

// UploadFile sends the file content as a single multipart request and
// returns the gateway's record of the stored file.
func (c *Client) UploadFile(ctx context.Context, req *UploadFileRequest) (*File, error) {
	if err := c.requireConfig(); err != nil {
		return nil, err
	}
	if req.FileName == "" {
		return nil, fmt.Errorf("file name is required")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, req.FileName))

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	partHeader.Set("Content-Type", contentType)

	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(req.Content); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}

	if req.Folder != "" {
		if err := writer.WriteField("folder", req.Folder); err != nil {
			return nil, fmt.Errorf("failed to write folder field: %w", err)
		}
	}

	if len(req.Metadata) > 0 {
		metadataJSON, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}

		if err := writer.WriteField("metadata", string(metadataJSON)); err != nil {
			return nil, fmt.Errorf("failed to write metadata field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/api/files", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}

	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	c.applyCommonHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	var file File
	if err := c.handleEnvelope(resp, &file); err != nil {
		return nil, err
	}

	return &file, nil
}

// GetFile fetches the gateway record for a stored file.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	if err := c.requireConfig(); err != nil {
		return nil, err
	}
	if fileID == "" {
		return nil, fmt.Errorf("file ID is required")
	}

	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/files/%s", fileID))
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	var file File
	if err := c.handleEnvelope(resp, &file); err != nil {
		return nil, err
	}

	return &file, nil
}

// DownloadFile retrieves the byte payload of a stored file. The
// endpoint answers with either a redirect to the final location or a
// JSON body naming it; redirects are followed by the HTTP client, the
// JSON variant is resolved with a second fetch.
func (c *Client) DownloadFile(ctx context.Context, fileID string) (*DownloadedFile, error) {
	if err := c.requireConfig(); err != nil {
		return nil, err
	}
	if fileID == "" {
		return nil, fmt.Errorf("file ID is required")
	}

	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/files/%s/download", fileID))
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read download response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, c.errorFromBody(resp, body)
	}

	if location := downloadLocationFrom(resp, body); location != "" {
		return c.fetchPayload(ctx, location)
	}

	return &DownloadedFile{
		Content:     body,
		ContentType: resp.Header.Get("Content-Type"),
		FileName:    fileNameFromDisposition(resp.Header.Get("Content-Disposition")),
	}, nil
}

// DeleteFile removes a stored file from the gateway.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if err := c.requireConfig(); err != nil {
		return err
	}
	if fileID == "" {
		return fmt.Errorf("file ID is required")
	}

	resp, err := c.doRequest(ctx, "DELETE", fmt.Sprintf("/api/files/%s", fileID))
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return c.handleEnvelope(resp, nil)
}

// ListFiles returns one page of stored files, optionally scoped to a
// folder.
func (c *Client) ListFiles(ctx context.Context, req *ListFilesRequest) (*ListFilesResult, error) {
	if err := c.requireConfig(); err != nil {
		return nil, err
	}

	query := url.Values{}
	if req.Folder != "" {
		query.Set("folder", req.Folder)
	}
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}

	path := "/api/files"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp, err := c.doRequest(ctx, "GET", path)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var result ListFilesResult
	if err := c.handleEnvelope(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) requireConfig() error {
	if c.config.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.config.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	return nil
}

func (c *Client) applyCommonHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.applyCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// handleEnvelope reads the response, maps error statuses to *Error and
// decodes the envelope's data payload into result when given.
func (c *Client) handleEnvelope(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return c.errorFromBody(resp, body)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !env.Success {
		message := env.Message
		if message == "" {
			message = env.Error
		}
		if message == "" {
			message = "request was not successful"
		}

		return &Error{
			StatusCode: resp.StatusCode,
			Message:    message,
			Body:       string(body),
			RequestID:  resp.Header.Get("X-Request-ID"),
		}
	}

	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("failed to unmarshal response data: %w", err)
		}
	}

	return nil
}

func (c *Client) errorFromBody(resp *http.Response, body []byte) error {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	message := fmt.Sprintf("HTTP %d error", resp.StatusCode)
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Message != "" {
			message = errResp.Message
		} else if errResp.Error != "" {
			message = errResp.Error
		}
	}

	return &Error{
		StatusCode: resp.StatusCode,
		Message:    message,
		Body:       string(body),
		RequestID:  resp.Header.Get("X-Request-ID"),
	}
}

// fetchPayload retrieves the final byte payload from a resolved
// location. The location is typically an external CDN URL, so the
// gateway credentials are not attached.
func (c *Client) fetchPayload(ctx context.Context, fileURL string) (*DownloadedFile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create payload request: %w", err)
	}

	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file payload: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file payload: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("payload fetch failed with HTTP %d", resp.StatusCode),
			Body:       string(body),
		}
	}

	return &DownloadedFile{
		Content:     body,
		ContentType: resp.Header.Get("Content-Type"),
		FileName:    fileNameFromDisposition(resp.Header.Get("Content-Disposition")),
	}, nil
}

// downloadLocationFrom detects the JSON variant of the download
// endpoint. A stored JSON document served inline does not match the
// location shape and falls through to the payload path.
func downloadLocationFrom(resp *http.Response, body []byte) string {
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return ""
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		if location := locationURL(env.Data); location != "" {
			return location
		}
	}

	return locationURL(body)
}

func locationURL(data []byte) string {
	var loc downloadLocation
	if err := json.Unmarshal(data, &loc); err != nil {
		return ""
	}

	if loc.DownloadURL != "" {
		return loc.DownloadURL
	}

	return loc.URL
}

func fileNameFromDisposition(disposition string) string {
	if disposition == "" {
		return ""
	}

	idx := strings.Index(disposition, `filename="`)
	if idx == -1 {
		return ""
	}

	start := idx + len(`filename="`)
	end := strings.Index(disposition[start:], `"`)
	if end == -1 {
		return ""
	}

	return disposition[start : start+end]
}
