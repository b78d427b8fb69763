package main

import (
	"github.com/spf13/cobra"

	"github.com/princekumarofficial/media-service/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate <up|down|version|force N>",
	Short:     "Apply or roll back database migrations",
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"up", "down", "version", "force"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	pg, err := app.OpenPostgres(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	return pg.Migrate(cmd.Context(), newLogger(cmd, cfg), args[0], args[1:]...)
}
