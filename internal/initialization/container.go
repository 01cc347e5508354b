package initialization

import (
	"context"
	"database/sql"

	"github.com/nextmavens/filestore/internal/config"
	"github.com/nextmavens/filestore/internal/controllers"
	"github.com/nextmavens/filestore/internal/domain"
	"github.com/nextmavens/filestore/internal/managers"
	"github.com/nextmavens/filestore/internal/repositories"
	"github.com/nextmavens/filestore/internal/repositories/files"
	"github.com/nextmavens/filestore/pkg/clients/cloudinary"
	"github.com/nextmavens/filestore/pkg/clients/telegramstore"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type ServiceDependencies struct {
	DB                *sql.DB
	RedisClient       *redis.Client
	StorageService    domain.StorageService
	StorageController *controllers.StorageController
}

type ServiceContainer struct {
	config *config.Config
}

func NewServiceContainer() (*ServiceContainer, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	return &ServiceContainer{
		config: cfg,
	}, nil
}

func (c *ServiceContainer) GetConfig() *config.Config {
	return c.config
}

func (c *ServiceContainer) BuildServiceDependencies(ctx context.Context) (*ServiceDependencies, error) {
	log.Info().Msg("Building storage service dependencies")

	telegramClient, err := buildTelegramClient(c.config)
	if err != nil {
		log.Error().Err(err).Msg("Failed to configure bulk storage client")
		return nil, err
	}

	cloudinaryClient, err := buildCloudinaryClient(c.config)
	if err != nil {
		log.Error().Err(err).Msg("Failed to configure media storage client")
		return nil, err
	}

	db, err := repositories.Open(ctx, c.config.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to metadata database")
		return nil, err
	}

	redisClient, err := buildRedisClient(ctx, c.config)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to redis")
		db.Close()
		return nil, err
	}

	fileRepository := files.NewPostgresRepository(db)

	backendRouter := managers.NewBackendRouter(managers.BackendRouterDependencies{
		TelegramClient:   telegramClient,
		CloudinaryClient: cloudinaryClient,
	})

	storageService := managers.NewStorageManager(managers.StorageManagerDependencies{
		Router: backendRouter,
		Store:  fileRepository,
	})

	storageController := controllers.NewStorageController(controllers.StorageControllerDependencies{
		StorageService: storageService,
	})

	log.Info().
		Bool("media_deletion_enabled", cloudinaryClient.HasAdminCredentials()).
		Bool("rate_limiting_enabled", redisClient != nil).
		Msg("Storage service dependencies ready")

	return &ServiceDependencies{
		DB:                db,
		RedisClient:       redisClient,
		StorageService:    storageService,
		StorageController: storageController,
	}, nil
}

// buildTelegramClient fails fast when the bulk gateway credentials are
// absent instead of surfacing auth errors on first upload.
func buildTelegramClient(cfg *config.Config) (*telegramstore.Client, error) {
	var missing []string

	if cfg.TelegramAPIURL == "" {
		missing = append(missing, "TELEGRAM_STORAGE_API_URL")
	}

	if cfg.TelegramAPIKey == "" {
		missing = append(missing, "TELEGRAM_STORAGE_API_KEY")
	}

	if len(missing) > 0 {
		return nil, &domain.MissingCredentialsError{Backend: domain.BackendTelegram, Missing: missing}
	}

	return telegramstore.NewClient(
		telegramstore.WithBaseURL(cfg.TelegramAPIURL),
		telegramstore.WithAPIKey(cfg.TelegramAPIKey),
	), nil
}

// buildCloudinaryClient requires the unsigned upload settings. The admin
// key pair stays optional; without it media deletes degrade to
// metadata-only soft deletes.
func buildCloudinaryClient(cfg *config.Config) (*cloudinary.Client, error) {
	var missing []string

	if cfg.CloudinaryCloudName == "" {
		missing = append(missing, "CLOUDINARY_CLOUD_NAME")
	}

	if cfg.CloudinaryUploadPreset == "" {
		missing = append(missing, "CLOUDINARY_UPLOAD_PRESET")
	}

	if len(missing) > 0 {
		return nil, &domain.MissingCredentialsError{Backend: domain.BackendCloudinary, Missing: missing}
	}

	options := []cloudinary.ClientOption{
		cloudinary.WithCloudName(cfg.CloudinaryCloudName),
		cloudinary.WithUploadPreset(cfg.CloudinaryUploadPreset),
	}

	if cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		options = append(options, cloudinary.WithCredentials(cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret))
	} else if cfg.CloudinaryAPIKey != "" || cfg.CloudinaryAPISecret != "" {
		log.Warn().Msg("Ignoring half-configured cloudinary admin credentials, media deletion disabled")
	}

	return cloudinary.NewClient(options...), nil
}

// buildRedisClient returns nil when no address is configured. A
// configured but unreachable Redis fails startup rather than silently
// running without rate limits.
func buildRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
