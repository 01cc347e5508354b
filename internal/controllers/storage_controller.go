package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/nextmavens/filestore/internal/domain"
	"github.com/nextmavens/filestore/internal/middlewares"
	"github.com/nextmavens/filestore/pkg/clients/cloudinary"
	"github.com/nextmavens/filestore/pkg/clients/telegramstore"
)

// StorageController handles the tenant-facing file storage API.
type StorageController struct {
	storageService domain.StorageService
}

type StorageControllerDependencies struct {
	StorageService domain.StorageService
}

func NewStorageController(deps StorageControllerDependencies) *StorageController {
	return &StorageController{
		storageService: deps.StorageService,
	}
}

// UploadFile stores a multipart file under the logical path given in
// the path form field.
func (c *StorageController) UploadFile(ctx fiber.Ctx) error {
	project, ok := middlewares.ProjectFromContext(ctx)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing project identity")
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing file part")
	}

	logicalPath := ctx.FormValue("path")
	if logicalPath == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing path field")
	}

	var metadata map[string]interface{}
	if raw := ctx.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid metadata JSON")
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Failed to open file part")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Failed to read file part")
	}

	// The content_type field overrides the part header, for callers whose
	// multipart writers stamp everything application/octet-stream.
	contentType := ctx.FormValue("content_type")
	if contentType == "" {
		contentType = fileHeader.Header.Get("Content-Type")
	}

	output, err := c.storageService.UploadWithTracking(ctx.RequestCtx(), domain.UploadParams{
		Project:     project,
		LogicalPath: logicalPath,
		FileName:    fileHeader.Filename,
		Content:     content,
		ContentType: contentType,
		Metadata:    metadata,
	})
	if err != nil {
		return respondStorageError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(output)
}

// DownloadFile streams the stored bytes for the logical path in the
// path query parameter. Access tracking is on unless track=false.
func (c *StorageController) DownloadFile(ctx fiber.Ctx) error {
	project, ok := middlewares.ProjectFromContext(ctx)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing project identity")
	}

	logicalPath := ctx.Query("path")
	if logicalPath == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing path query parameter")
	}

	output, err := c.storageService.DownloadFromStorage(ctx.RequestCtx(), domain.DownloadParams{
		Project:     project,
		LogicalPath: logicalPath,
		Track:       ctx.Query("track") != "false",
	})
	if err != nil {
		return respondStorageError(ctx, err)
	}

	if output.ContentType != "" {
		ctx.Set(fiber.HeaderContentType, output.ContentType)
	}
	if output.FileName != "" {
		ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, output.FileName))
	}

	return ctx.Send(output.Content)
}

// GetFileURL returns the stored access URL for a logical path.
func (c *StorageController) GetFileURL(ctx fiber.Ctx) error {
	project, ok := middlewares.ProjectFromContext(ctx)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing project identity")
	}

	logicalPath := ctx.Query("path")
	if logicalPath == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing path query parameter")
	}

	url, err := c.storageService.GetFileURL(ctx.RequestCtx(), project, logicalPath)
	if err != nil {
		return respondStorageError(ctx, err)
	}

	if url == "" {
		return ctx.JSON(fiber.Map{"url": nil})
	}

	return ctx.JSON(fiber.Map{"url": url})
}

// ExistsFile reports whether a logical path has a live stored object.
func (c *StorageController) ExistsFile(ctx fiber.Ctx) error {
	project, ok := middlewares.ProjectFromContext(ctx)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing project identity")
	}

	logicalPath := ctx.Query("path")
	if logicalPath == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing path query parameter")
	}

	exists, err := c.storageService.ExistsInStorage(ctx.RequestCtx(), project, logicalPath)
	if err != nil {
		return respondStorageError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"exists": exists})
}

// ListFiles returns the project's records, optionally filtered by path
// prefix or backend.
func (c *StorageController) ListFiles(ctx fiber.Ctx) error {
	project, ok := middlewares.ProjectFromContext(ctx)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing project identity")
	}

	limit, _ := strconv.Atoi(ctx.Query("limit"))
	offset, _ := strconv.Atoi(ctx.Query("offset"))

	files, err := c.storageService.ListFiles(ctx.RequestCtx(), domain.ListFilesParams{
		Project: project,
		Prefix:  ctx.Query("prefix"),
		Backend: ctx.Query("backend"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return respondStorageError(ctx, err)
	}

	if files == nil {
		files = []*domain.StorageFile{}
	}

	return ctx.JSON(fiber.Map{
		"files": files,
		"count": len(files),
	})
}

type updateMetadataRequest struct {
	Path     string                 `json:"path"`
	Metadata map[string]interface{} `json:"metadata"`
}

// UpdateFileMetadata merges caller keys into a record's metadata map.
func (c *StorageController) UpdateFileMetadata(ctx fiber.Ctx) error {
	project, ok := middlewares.ProjectFromContext(ctx)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing project identity")
	}

	var req updateMetadataRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Path == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing path field")
	}
	if len(req.Metadata) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Missing metadata field")
	}

	file, err := c.storageService.UpdateFileMetadata(ctx.RequestCtx(), project, req.Path, req.Metadata)
	if err != nil {
		return respondStorageError(ctx, err)
	}

	return ctx.JSON(file)
}

// DeleteFile removes the stored object and its record. Deleting an
// absent path reports deleted: false.
func (c *StorageController) DeleteFile(ctx fiber.Ctx) error {
	project, ok := middlewares.ProjectFromContext(ctx)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing project identity")
	}

	logicalPath := ctx.Query("path")
	if logicalPath == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing path query parameter")
	}

	deleted, err := c.storageService.DeleteFromStorage(ctx.RequestCtx(), project, logicalPath)
	if err != nil {
		return respondStorageError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"deleted": deleted})
}

// DeleteAllProjectFiles purges every record of the calling project.
func (c *StorageController) DeleteAllProjectFiles(ctx fiber.Ctx) error {
	project, ok := middlewares.ProjectFromContext(ctx)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing project identity")
	}

	count, err := c.storageService.DeleteAllProjectFiles(ctx.RequestCtx(), project)
	if err != nil {
		return respondStorageError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"deleted_count": count})
}

// GetStorageStats returns the project's aggregate statistics.
func (c *StorageController) GetStorageStats(ctx fiber.Ctx) error {
	project, ok := middlewares.ProjectFromContext(ctx)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing project identity")
	}

	stats, err := c.storageService.GetStorageStats(ctx.RequestCtx(), project)
	if err != nil {
		return respondStorageError(ctx, err)
	}

	return ctx.JSON(stats)
}

// GetUsage returns the project's per-backend byte totals.
func (c *StorageController) GetUsage(ctx fiber.Ctx) error {
	project, ok := middlewares.ProjectFromContext(ctx)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing project identity")
	}

	usage, err := c.storageService.GetUsage(ctx.RequestCtx(), project)
	if err != nil {
		return respondStorageError(ctx, err)
	}

	return ctx.JSON(usage)
}

// respondStorageError maps service errors onto HTTP statuses: tenant
// violations are 403, other path rejections 400, absent files 404,
// size violations 413 and backend transport failures 502.
func respondStorageError(ctx fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrCrossTenantAccess):
		log.Warn().Err(err).Msg("Cross-tenant access rejected")
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case domain.IsScopeError(err):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrFileNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found"})
	}

	var tooLarge *domain.FileTooLargeError
	if errors.As(err, &tooLarge) {
		return ctx.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": tooLarge.Error()})
	}

	var missingCredentials *domain.MissingCredentialsError
	if errors.As(err, &missingCredentials) {
		log.Error().Err(err).Msg("Storage backend misconfigured")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Storage backend misconfigured"})
	}

	var telegramErr *telegramstore.Error
	if errors.As(err, &telegramErr) {
		log.Error().Err(err).Msg("Bulk storage backend request failed")
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Storage backend unavailable"})
	}

	var cloudinaryErr *cloudinary.Error
	if errors.As(err, &cloudinaryErr) {
		log.Error().Err(err).Msg("Media storage backend request failed")
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Storage backend unavailable"})
	}

	log.Error().Err(err).Msg("Storage operation failed")
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
