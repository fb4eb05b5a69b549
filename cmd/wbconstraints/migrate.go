package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/totegamma/wbconstraints/internal/infra/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.NewPostgres(cfg.Server.PostgresDsn, log)
		if err != nil {
			return errors.Wrap(err, "failed to connect database")
		}
		if err := database.MigratePostgres(db); err != nil {
			return errors.Wrap(err, "failed to migrate database")
		}
		log.Info("database migrated")
		return nil
	},
}
