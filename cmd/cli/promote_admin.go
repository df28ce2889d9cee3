package main

import (
	"fmt"

	"github.com/ripple-app/backend/internal/config"
	"github.com/ripple-app/backend/internal/database"
	"github.com/ripple-app/backend/internal/logger"
	"github.com/ripple-app/backend/internal/models"
	"github.com/spf13/cobra"
)

var revokeAdmin bool

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin <email>",
	Short: "Grant (or revoke with --revoke) admin privileges for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize("warn", ""); err != nil {
			return err
		}
		defer logger.Close()

		cfg := config.Load()
		if err := database.Initialize(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("database init: %w", err)
		}
		defer database.Close()

		email := args[0]
		var user models.User
		if err := database.DB.Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
			return fmt.Errorf("user not found: %s", email)
		}

		role := models.RoleAdmin
		if revokeAdmin {
			role = models.RoleUser
		}
		if user.Role == role {
			fmt.Printf("%s already has role %q\n", email, role)
			return nil
		}

		if err := database.DB.Model(&user).Update("role", role).Error; err != nil {
			return err
		}
		fmt.Printf("%s is now %q\n", email, role)
		return nil
	},
}

func init() {
	promoteAdminCmd.Flags().BoolVar(&revokeAdmin, "revoke", false, "revoke admin privileges instead of granting")
}
