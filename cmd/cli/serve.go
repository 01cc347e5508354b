package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nextmavens/filestore/internal/initialization"
	"github.com/nextmavens/filestore/internal/middlewares"
	"github.com/nextmavens/filestore/internal/repositories"
	"github.com/nextmavens/filestore/internal/server"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewServeCommand(serviceContainer *initialization.ServiceContainer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the storage service HTTP server",
		Long:  `Start the storage service. Pending database migrations run before the server accepts traffic.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(serviceContainer)
		},
	}

	return cmd
}

func runServe(serviceContainer *initialization.ServiceContainer) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().Msg("Starting storage service")

	cfg := serviceContainer.GetConfig()

	deps, err := serviceContainer.BuildServiceDependencies(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build service dependencies")
	}
	defer deps.DB.Close()

	if err := repositories.RunMigrations(ctx, deps.DB); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	app := server.NewHTTPServer(server.HTTPServerDependencies{
		JWTSecret:         cfg.ServiceJWTSecret,
		StorageController: deps.StorageController,
		RedisClient:       deps.RedisClient,
		RateLimitConfig: middlewares.RateLimitConfig{
			MaxRequests:   cfg.RateLimitMaxRequests,
			WindowSeconds: cfg.RateLimitWindowSeconds,
		},
	})

	log.Info().Str("address", cfg.HTTPAddress).Msg("HTTP server listening")

	if err := app.Listen(cfg.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
	}

	log.Info().Msg("Storage service stopped")
	return nil
}
