package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/nextmavens/filestore/internal/initialization"
	"github.com/nextmavens/filestore/internal/repositories"
	"github.com/nextmavens/filestore/internal/version"

	"github.com/spf13/cobra"
)

func NewStatusCommand(serviceContainer *initialization.ServiceContainer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current service status",
		Long:  `Display the resolved configuration and probe the metadata database connection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(serviceContainer)
		},
	}

	return cmd
}

func runStatus(serviceContainer *initialization.ServiceContainer) error {
	cfg := serviceContainer.GetConfig()
	info := version.Get()

	fmt.Println("Filestore storage service")
	fmt.Printf("   Version: %s (%s, %s)\n", info.Version, info.GoVersion, info.Platform)
	fmt.Printf("   HTTP address: %s\n", cfg.HTTPAddress)
	fmt.Printf("   Bulk gateway: %s\n", cfg.TelegramAPIURL)
	fmt.Printf("   Media cloud: %s\n", cfg.CloudinaryCloudName)

	if cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		fmt.Println("   Media deletion: enabled")
	} else {
		fmt.Println("   Media deletion: disabled (metadata-only deletes)")
	}

	if cfg.RedisAddr != "" {
		fmt.Printf("   Rate limiting: %d requests per %ds via %s\n",
			cfg.RateLimitMaxRequests, cfg.RateLimitWindowSeconds, cfg.RedisAddr)
	} else {
		fmt.Println("   Rate limiting: disabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := repositories.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Println("❌ Metadata database is unreachable")
		return err
	}
	db.Close()

	fmt.Println("✅ Metadata database is reachable")
	return nil
}
