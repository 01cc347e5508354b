package cli

import (
	"fmt"
	"os"

	"github.com/nextmavens/filestore/internal/initialization"
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "filestore",
		Short: "Filestore storage service CLI",
		Long: `Filestore is a multi-tenant file storage service that routes uploads between
a bulk file gateway and a media-optimizing backend, keeping metadata in Postgres.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	serviceContainer, err := initialization.NewServiceContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(NewServeCommand(serviceContainer))
	rootCmd.AddCommand(NewMigrateCommand(serviceContainer))
	rootCmd.AddCommand(NewStatusCommand(serviceContainer))
	rootCmd.AddCommand(NewTokenCommand(serviceContainer))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
