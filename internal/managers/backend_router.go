package managers

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/nextmavens/filestore/internal/domain"
	"github.com/nextmavens/filestore/pkg/clients/cloudinary"
	"github.com/nextmavens/filestore/pkg/clients/telegramstore"
)

type BackendRouterDependencies struct {
	TelegramClient   *telegramstore.Client
	CloudinaryClient *cloudinary.Client
}

type backendRouter struct {
	telegramClient   *telegramstore.Client
	cloudinaryClient *cloudinary.Client
}

// NewBackendRouter creates the router that dispatches transfers to the
// backend selected by content type.
func NewBackendRouter(deps BackendRouterDependencies) domain.BackendRouter {
	return &backendRouter{
		telegramClient:   deps.TelegramClient,
		cloudinaryClient: deps.CloudinaryClient,
	}
}

// Upload checks the backend size limit before any network transfer and
// dispatches to the selected backend.
func (r *backendRouter) Upload(ctx context.Context, params domain.UploadFileParams) (*domain.UploadResult, error) {
	backend := domain.BackendForContentType(params.ContentType)

	size := int64(len(params.Content))
	if limit := domain.MaxFileSize(backend); size > limit {
		return nil, &domain.FileTooLargeError{Backend: backend, Size: size, Limit: limit}
	}

	if backend == domain.BackendCloudinary {
		return r.uploadMedia(ctx, params)
	}

	return r.uploadBulk(ctx, params)
}

func (r *backendRouter) uploadBulk(ctx context.Context, params domain.UploadFileParams) (*domain.UploadResult, error) {
	folder := backendFolder(params.Path)

	file, err := r.telegramClient.UploadFile(ctx, &telegramstore.UploadFileRequest{
		FileName:    params.FileName,
		Content:     params.Content,
		ContentType: params.ContentType,
		Folder:      folder,
		Metadata: map[string]interface{}{
			"path":       params.Path.String(),
			"uploadedAt": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to bulk storage: %w", err)
	}

	fileName := file.Name
	if fileName == "" {
		fileName = params.FileName
	}

	return &domain.UploadResult{
		Backend:       domain.BackendTelegram,
		BackendFileID: file.ID,
		FileURL:       file.URL,
		DownloadURL:   file.DownloadURL,
		FileName:      fileName,
		FileSize:      int64(len(params.Content)),
		ContentType:   params.ContentType,
		Metadata: map[string]interface{}{
			"folder": folder,
		},
	}, nil
}

func (r *backendRouter) uploadMedia(ctx context.Context, params domain.UploadFileParams) (*domain.UploadResult, error) {
	resourceType := cloudinary.ResourceTypeFor(params.ContentType)

	result, err := r.cloudinaryClient.Upload(ctx, &cloudinary.UploadRequest{
		FileName:     params.FileName,
		Content:      params.Content,
		ContentType:  params.ContentType,
		ResourceType: resourceType,
		Folder:       backendFolder(params.Path),
		PublicID:     mediaPublicID(params.FileName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to media storage: %w", err)
	}

	metadata := map[string]interface{}{
		"format":       result.Format,
		"resourceType": result.ResourceType,
	}
	if result.Width > 0 {
		metadata["width"] = result.Width
		metadata["height"] = result.Height
	}
	if result.Duration > 0 {
		metadata["duration"] = result.Duration
	}

	fileURL := result.SecureURL
	if fileURL == "" {
		fileURL = result.URL
	}

	return &domain.UploadResult{
		Backend:       domain.BackendCloudinary,
		BackendFileID: result.PublicID,
		FileURL:       fileURL,
		DownloadURL:   r.cloudinaryClient.DownloadURL(result.PublicID, resourceType, deliveryTransformation(resourceType)),
		FileName:      params.FileName,
		FileSize:      int64(len(params.Content)),
		ContentType:   params.ContentType,
		ETag:          result.Etag,
		Metadata:      metadata,
	}, nil
}

// Download fetches the byte payload of a stored object by its backend
// native id. A backend 404 maps to domain.ErrFileNotFound.
func (r *backendRouter) Download(ctx context.Context, params domain.DownloadFileParams) (*domain.BackendFile, error) {
	switch params.Backend {
	case domain.BackendTelegram:
		file, err := r.telegramClient.DownloadFile(ctx, params.BackendFileID)
		if err != nil {
			if apiErr, ok := telegramstore.IsAPIError(err); ok && apiErr.IsNotFound() {
				return nil, fmt.Errorf("file missing in bulk storage: %w", domain.ErrFileNotFound)
			}
			return nil, fmt.Errorf("failed to download from bulk storage: %w", err)
		}

		return &domain.BackendFile{
			Content:     file.Content,
			ContentType: firstNonEmpty(file.ContentType, params.ContentType),
			FileName:    file.FileName,
		}, nil

	case domain.BackendCloudinary:
		asset, err := r.cloudinaryClient.Download(ctx, params.BackendFileID, cloudinary.ResourceTypeFor(params.ContentType))
		if err != nil {
			if apiErr, ok := cloudinary.IsAPIError(err); ok && apiErr.IsNotFound() {
				return nil, fmt.Errorf("asset missing in media storage: %w", domain.ErrFileNotFound)
			}
			return nil, fmt.Errorf("failed to download from media storage: %w", err)
		}

		return &domain.BackendFile{
			Content:     asset.Content,
			ContentType: firstNonEmpty(asset.ContentType, params.ContentType),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", params.Backend)
	}
}

// Delete removes the backend object. An already absent object counts
// as deleted. Media deletes without admin credentials leave the asset
// in place and succeed, so the metadata record can still be removed.
func (r *backendRouter) Delete(ctx context.Context, params domain.DeleteFileParams) error {
	switch params.Backend {
	case domain.BackendTelegram:
		if err := r.telegramClient.DeleteFile(ctx, params.BackendFileID); err != nil {
			if apiErr, ok := telegramstore.IsAPIError(err); ok && apiErr.IsNotFound() {
				return nil
			}
			return fmt.Errorf("failed to delete from bulk storage: %w", err)
		}
		return nil

	case domain.BackendCloudinary:
		err := r.cloudinaryClient.Destroy(ctx, params.BackendFileID, cloudinary.ResourceTypeFor(params.ContentType))
		if errors.Is(err, cloudinary.ErrNoAdminCredentials) {
			log.Warn().
				Str("public_id", params.BackendFileID).
				Msg("no admin credentials configured, leaving media asset in place")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to delete from media storage: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unsupported backend: %s", params.Backend)
	}
}

// Exists probes the backend for the object behind a stored record.
func (r *backendRouter) Exists(ctx context.Context, params domain.ExistsFileParams) (bool, error) {
	switch params.Backend {
	case domain.BackendTelegram:
		if _, err := r.telegramClient.GetFile(ctx, params.BackendFileID); err != nil {
			if apiErr, ok := telegramstore.IsAPIError(err); ok && apiErr.IsNotFound() {
				return false, nil
			}
			return false, fmt.Errorf("failed to check bulk storage: %w", err)
		}
		return true, nil

	case domain.BackendCloudinary:
		exists, err := r.cloudinaryClient.Exists(ctx, params.BackendFileID, cloudinary.ResourceTypeFor(params.ContentType))
		if err != nil {
			return false, fmt.Errorf("failed to check media storage: %w", err)
		}
		return exists, nil

	default:
		return false, fmt.Errorf("unsupported backend: %s", params.Backend)
	}
}

// backendFolder maps a scoped path onto the backend folder taxonomy:
// the tenant segment followed by the path's directory.
func backendFolder(p domain.ScopedPath) string {
	folder := p.TenantID
	if dir := p.Dir(); dir != "" {
		folder += "/" + dir
	}
	return folder
}

// mediaPublicID derives a public id from the file name: a unix
// timestamp prefix keeps re-uploads of the same name distinct.
func mediaPublicID(fileName string) string {
	base := strings.TrimSuffix(fileName, path.Ext(fileName))
	return fmt.Sprintf("%d_%s", time.Now().Unix(), slug.Make(base))
}

func deliveryTransformation(resourceType cloudinary.ResourceType) string {
	if resourceType == cloudinary.ResourceTypeVideo {
		return "q_auto"
	}
	return "q_auto,f_auto"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
