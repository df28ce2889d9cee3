package main

import (
	"fmt"

	"github.com/ripple-app/backend/internal/config"
	"github.com/ripple-app/backend/internal/database"
	"github.com/ripple-app/backend/internal/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize("info", ""); err != nil {
			return err
		}
		defer logger.Close()

		cfg := config.Load()
		if err := database.Initialize(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("database init: %w", err)
		}
		defer database.Close()

		return database.Migrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
