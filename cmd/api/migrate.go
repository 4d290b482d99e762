package main

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/support-portal/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply SQL migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadBase()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
		if err != nil {
			return err
		}
		defer pg.Close()
		return persistence.RunMigrations(cmd.Context(), pg, migrationsDir, logger)
	},
}
