package cli

import (
	"context"

	"github.com/nextmavens/filestore/internal/initialization"
	"github.com/nextmavens/filestore/internal/repositories"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(serviceContainer *initialization.ServiceContainer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run pending database migrations",
		Long:  `Apply pending schema migrations to the metadata database and exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(serviceContainer)
		},
	}

	return cmd
}

func runMigrate(serviceContainer *initialization.ServiceContainer) error {
	ctx := context.Background()
	cfg := serviceContainer.GetConfig()

	db, err := repositories.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to metadata database")
		return err
	}
	defer db.Close()

	if err := repositories.RunMigrations(ctx, db); err != nil {
		log.Error().Err(err).Msg("Failed to run database migrations")
		return err
	}

	log.Info().Msg("Database migrations applied")
	return nil
}
