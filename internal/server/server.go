package server

import (
	"time"

	"github.com/nextmavens/filestore/internal/auth"
	"github.com/nextmavens/filestore/internal/controllers"
	"github.com/nextmavens/filestore/internal/middlewares"
	"github.com/nextmavens/filestore/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type HTTPServerDependencies struct {
	JWTSecret         string
	StorageController *controllers.StorageController

	// RedisClient enables the sliding-window rate limiter when set.
	RedisClient     *redis.Client
	RateLimitConfig middlewares.RateLimitConfig
}

// Body limit sized for the bulk backend's 1.5 GiB ceiling plus
// multipart framing overhead.
const requestBodyLimit = 1536*1024*1024 + 10*1024*1024

func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName:   "filestore",
		BodyLimit: requestBodyLimit,
	})

	// Add basic middleware
	router.Use(cors.New())
	router.Use(middlewares.RequestIDMiddleware())
	router.Use(logger.New())

	// Health check endpoint (no authentication required)
	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "filestore",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	verifier, err := auth.NewProjectTokenVerifier(deps.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create project token verifier, please configure SERVICE_JWT_SECRET")
	}

	storage := router.Group("/v1/storage")
	storage.Use(middlewares.ProjectAuthMiddleware(verifier))

	if deps.RedisClient != nil {
		storage.Use(middlewares.RateLimitMiddleware(deps.RedisClient, deps.RateLimitConfig))
	}

	storage.Post("/files", deps.StorageController.UploadFile)
	storage.Get("/files", deps.StorageController.ListFiles)
	storage.Delete("/files", deps.StorageController.DeleteFile)
	storage.Get("/files/content", deps.StorageController.DownloadFile)
	storage.Get("/files/url", deps.StorageController.GetFileURL)
	storage.Get("/files/exists", deps.StorageController.ExistsFile)
	storage.Patch("/files/metadata", deps.StorageController.UpdateFileMetadata)
	storage.Delete("/projects/files", deps.StorageController.DeleteAllProjectFiles)
	storage.Get("/stats", deps.StorageController.GetStorageStats)
	storage.Get("/usage", deps.StorageController.GetUsage)

	return router
}
