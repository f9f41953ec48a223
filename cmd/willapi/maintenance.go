package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"willvault/api/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := store.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		applied, err := store.ApplyMigrations(cmd.Context(), db, cfg.MigrationsDir)
		if err != nil {
			return err
		}
		logger.Info("migrations complete", zap.Strings("applied", applied))
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup-sessions",
	Short: "Delete expired refresh tokens, revocations and wizard snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := store.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := store.NewPostgresStore(db).CleanupExpiredSessions(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("expired sessions removed", zap.Int64("count", n))
		return nil
	},
}
