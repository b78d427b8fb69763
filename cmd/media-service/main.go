package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/princekumarofficial/media-service/internal/app"
	"github.com/princekumarofficial/media-service/internal/config"
	"github.com/princekumarofficial/media-service/internal/logger"
)

func main() {
	// load config
	cfg := config.MustLoad()
	logger := logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatal("Failed to initialize media service: ", err)
	}
	defer a.Close()

	go a.Hub.Run(ctx)

	server := http.Server{
		Addr:              cfg.HTTPServer.Address,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("server started",
		slog.String("address", cfg.HTTPServer.Address),
		slog.String("database", cfg.Database.Driver),
		slog.String("blob_store", cfg.BlobStore.Driver))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
	}
	cancel()

	slog.Info("Server stopped")
}
