package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/benvon/keyword-rotator/internal/database"
	"github.com/benvon/keyword-rotator/internal/services/admintoken"
	"github.com/spf13/cobra"
)

// NewTokenCmd creates the token command
func NewTokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token",
		Long:  "Mint an HS256 admin token signed with ADMIN_JWT_SECRET for the mutating API routes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("ADMIN_JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("ADMIN_JWT_SECRET is required")
			}
			token, err := admintoken.Issue(secret, subject, ttl, time.Now())
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "keywordctl", "Token subject recorded in the audit log")
	cmd.Flags().DurationVar(&ttl, "ttl", admintoken.DefaultTTL, "Token lifetime")
	return cmd
}

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			databaseURL := os.Getenv("DATABASE_URL")
			if databaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			if err := database.RunMigrations(databaseURL); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
}
