package cli

import (
	"fmt"
	"time"

	"github.com/nextmavens/filestore/internal/auth"
	"github.com/nextmavens/filestore/internal/domain"
	"github.com/nextmavens/filestore/internal/initialization"

	"github.com/spf13/cobra"
)

func NewTokenCommand(serviceContainer *initialization.ServiceContainer) *cobra.Command {
	var projectID int64
	var tenantID string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a project-scoped service token",
		Long:  `Mint an HS256 service token for a project, signed with SERVICE_JWT_SECRET. Pass the token as a bearer credential to the storage API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(serviceContainer, projectID, tenantID, ttl)
		},
	}

	cmd.Flags().Int64Var(&projectID, "project-id", 0, "Project id claim")
	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "Tenant id claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime, 0 for no expiry")

	return cmd
}

func runToken(serviceContainer *initialization.ServiceContainer, projectID int64, tenantID string, ttl time.Duration) error {
	if projectID <= 0 {
		return fmt.Errorf("--project-id is required")
	}

	if tenantID == "" {
		return fmt.Errorf("--tenant-id is required")
	}

	cfg := serviceContainer.GetConfig()

	issuer, err := auth.NewProjectTokenIssuer(cfg.ServiceJWTSecret)
	if err != nil {
		return err
	}

	token, err := issuer.IssueToken(domain.ProjectIdentity{
		ProjectID: projectID,
		TenantID:  tenantID,
	}, ttl)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
