package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/princekumarofficial/media-service/internal/app"
	"github.com/princekumarofficial/media-service/internal/config"
	"github.com/princekumarofficial/media-service/internal/logger"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return nil, errors.New("config path must be provided with --config or CONFIG_PATH")
	}
	return config.Load(path)
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	return logger.New(os.Stderr, level, "text")
}

// openApp loads config and builds the services against the real backends.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, newLogger(cmd, cfg))
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
