// Package cloudinary provides a client for the media CDN's upload,
// delivery and admin APIs.
package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
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

// Client talks to the media CDN. Uploads go through the unsigned
// preset flow, destroys through the signed admin API.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// ClientConfig holds the account and connection settings.
type ClientConfig struct {
	CloudName       string
	UploadPreset    string
	APIKey          string
	APISecret       string
	APIBaseURL      string
	DeliveryBaseURL string
	Timeout         time.Duration
	UserAgent       string
	HTTPClient      *http.Client
}

// DefaultConfig returns the default client configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		APIBaseURL:      "https://api.cloudinary.com",
		DeliveryBaseURL: "https://res.cloudinary.com",
		Timeout:         2 * time.Minute,
		UserAgent:       "filestore-client/1.0",
	}
}

// ClientOption configures the client
type ClientOption func(*ClientConfig)

// WithCloudName sets the account cloud name
func WithCloudName(cloudName string) ClientOption {
	return func(c *ClientConfig) {
		c.CloudName = cloudName
	}
}

// WithUploadPreset sets the unsigned upload preset
func WithUploadPreset(preset string) ClientOption {
	return func(c *ClientConfig) {
		c.UploadPreset = preset
	}
}

// WithCredentials sets the admin API key pair used for destroys
func WithCredentials(apiKey, apiSecret string) ClientOption {
	return func(c *ClientConfig) {
		c.APIKey = apiKey
		c.APISecret = apiSecret
	}
}

// WithAPIBaseURL overrides the upload and admin API base URL
func WithAPIBaseURL(baseURL string) ClientOption {
	return func(c *ClientConfig) {
		c.APIBaseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithDeliveryBaseURL overrides the asset delivery base URL
func WithDeliveryBaseURL(baseURL string) ClientOption {
	return func(c *ClientConfig) {
		c.DeliveryBaseURL = strings.TrimRight(baseURL, "/")
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

// NewClient creates a media CDN client with the given options
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

// HasAdminCredentials reports whether signed admin calls are possible.
func (c *Client) HasAdminCredentials() bool {
	return c.config.APIKey != "" && c.config.APISecret != ""
}

// Upload sends the asset through the unsigned preset upload endpoint
// and returns the CDN's record of it.
func (c *Client) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if err := c.requireConfig(); err != nil {
		return nil, err
	}
	if req.FileName == "" {
		return nil, fmt.Errorf("file name is required")
	}

	resourceType := req.ResourceType
	if resourceType == "" {
		resourceType = ResourceTypeFor(req.ContentType)
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

	if err := writer.WriteField("upload_preset", c.config.UploadPreset); err != nil {
		return nil, fmt.Errorf("failed to write upload preset field: %w", err)
	}

	if req.Folder != "" {
		if err := writer.WriteField("folder", req.Folder); err != nil {
			return nil, fmt.Errorf("failed to write folder field: %w", err)
		}
	}

	if req.PublicID != "" {
		if err := writer.WriteField("public_id", req.PublicID); err != nil {
			return nil, fmt.Errorf("failed to write public id field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/%s/upload", c.config.APIBaseURL, c.config.CloudName, resourceType)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}

	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to upload asset: %w", err)
	}

	var result UploadResult
	if err := c.handleResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// DownloadURL builds the deterministic delivery URL for an asset. An
// empty transformation yields the original rendition.
func (c *Client) DownloadURL(publicID string, resourceType ResourceType, transformation string) string {
	base := fmt.Sprintf("%s/%s/%s/upload", c.config.DeliveryBaseURL, c.config.CloudName, resourceType)

	if transformation != "" {
		return base + "/" + transformation + "/" + publicID
	}

	return base + "/" + publicID
}

// Download fetches the original rendition of an asset.
func (c *Client) Download(ctx context.Context, publicID string, resourceType ResourceType) (*DownloadedAsset, error) {
	if err := c.requireConfig(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.DownloadURL(publicID, resourceType, ""), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download asset: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset payload: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, c.errorFromBody(resp, body)
	}

	return &DownloadedAsset{
		Content:     body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Exists probes the delivery URL for an asset.
func (c *Client) Exists(ctx context.Context, publicID string, resourceType ResourceType) (bool, error) {
	if err := c.requireConfig(); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, "HEAD", c.DownloadURL(publicID, resourceType, ""), nil)
	if err != nil {
		return false, fmt.Errorf("failed to create probe request: %w", err)
	}

	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to probe asset: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode < 400:
		return true, nil
	case resp.StatusCode == 404:
		return false, nil
	default:
		return false, &Error{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("probe failed with HTTP %d", resp.StatusCode),
		}
	}
}

// Destroy removes an asset through the signed admin API. It returns
// ErrNoAdminCredentials when the client has no API key pair, and
// treats a "not found" result as success.
func (c *Client) Destroy(ctx context.Context, publicID string, resourceType ResourceType) error {
	if err := c.requireConfig(); err != nil {
		return err
	}
	if !c.HasAdminCredentials() {
		return ErrNoAdminCredentials
	}

	timestamp := time.Now().Unix()

	form := url.Values{}
	form.Set("public_id", publicID)
	form.Set("timestamp", strconv.FormatInt(timestamp, 10))
	form.Set("api_key", c.config.APIKey)
	form.Set("signature", c.signDestroy(publicID, timestamp))

	endpoint := fmt.Sprintf("%s/v1_1/%s/%s/destroy", c.config.APIBaseURL, c.config.CloudName, resourceType)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create destroy request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to destroy asset: %w", err)
	}

	var result destroyResponse
	if err := c.handleResponse(resp, &result); err != nil {
		return err
	}

	if result.Result != "ok" && result.Result != "not found" {
		return &Error{
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("destroy returned %q", result.Result),
		}
	}

	return nil
}

// signDestroy computes the admin API request signature: the sorted
// parameter string with the secret appended, hashed with SHA-1.
func (c *Client) signDestroy(publicID string, timestamp int64) string {
	payload := fmt.Sprintf("public_id=%s&timestamp=%d", publicID, timestamp)
	sum := sha1.Sum([]byte(payload + c.config.APISecret))
	return hex.EncodeToString(sum[:])
}

func (c *Client) requireConfig() error {
	if c.config.CloudName == "" {
		return fmt.Errorf("cloud name is required")
	}
	if c.config.UploadPreset == "" {
		return fmt.Errorf("upload preset is required")
	}
	return nil
}

func (c *Client) handleResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return c.errorFromBody(resp, body)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

func (c *Client) errorFromBody(resp *http.Response, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	message := fmt.Sprintf("HTTP %d error", resp.StatusCode)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	return &Error{
		StatusCode: resp.StatusCode,
		Message:    message,
		Body:       string(body),
	}
}
