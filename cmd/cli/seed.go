package main

import (
	"fmt"

	"github.com/ripple-app/backend/internal/config"
	"github.com/ripple-app/backend/internal/database"
	"github.com/ripple-app/backend/internal/logger"
	"github.com/ripple-app/backend/internal/seed"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the development database with fake users, posts and chats",
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

		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		return seed.NewSeeder(database.DB).SeedDev()
	},
}
