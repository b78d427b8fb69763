package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/princekumarofficial/media-service/internal/app"
	"github.com/princekumarofficial/media-service/internal/config"
	"github.com/princekumarofficial/media-service/internal/logger"
	"github.com/princekumarofficial/media-service/internal/sweeper"
)

func main() {
	cfg := config.MustLoad()
	logger := logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		slog.Error("cleanup worker failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}

	slog.Info("Cleanup worker stopped")
}

// run sweeps on cfg.Cleanup.Schedule until ctx is done. The app is closed
// before run returns on every path.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cleanup worker: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to close cleanup worker resources", slog.String("error", err.Error()))
		}
	}()

	worker := sweeper.New(a.Media, cfg.Cleanup.OlderThanDays, logger)
	return worker.Start(ctx, cfg.Cleanup.Schedule)
}
