// Package app wires configuration into storage, services and the HTTP
// handler shared by the server, the cleanup worker and mediactl.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/media-service/internal/blobstore"
	"github.com/princekumarofficial/media-service/internal/cache"
	"github.com/princekumarofficial/media-service/internal/config"
	"github.com/princekumarofficial/media-service/internal/events"
	"github.com/princekumarofficial/media-service/internal/http/router"
	"github.com/princekumarofficial/media-service/internal/metrics"
	documentService "github.com/princekumarofficial/media-service/internal/services/documents"
	mediaService "github.com/princekumarofficial/media-service/internal/services/media"
	"github.com/princekumarofficial/media-service/internal/storage"
	"github.com/princekumarofficial/media-service/internal/storage/memory"
	"github.com/princekumarofficial/media-service/internal/storage/postgres"
	"github.com/princekumarofficial/media-service/internal/websocket"
)

type App struct {
	Config    *config.Config
	Storage   storage.Storage
	Redis     *redis.Client
	Blobs     blobstore.Store
	Hub       *websocket.Hub
	Media     *mediaService.Service
	Documents *documentService.Service
	Logger    *slog.Logger
}

// OpenPostgres connects to the configured database.
func OpenPostgres(ctx context.Context, cfg *config.Config) (*postgres.Postgres, error) {
	return postgres.NewPostgres(ctx, cfg)
}

// OpenStorage returns the configured repository, migrated and wrapped in
// the Redis cache when Redis is enabled.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, *redis.Client, error) {
	var repo storage.Storage
	switch cfg.Database.Driver {
	case config.DatabaseMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		repo = memory.New()
	default:
		pg, err := OpenPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx, logger, "up"); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		repo = pg
	}

	if !cfg.Redis.Enabled {
		return repo, nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		repo.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Connected to Redis", slog.String("address", cfg.Redis.Address))
	return cache.NewCacheService(repo, client), client, nil
}

// New builds every service. The hub is created but not started; call Run.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	repo, redisClient, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	blobs, err := blobstore.New(cfg)
	if err != nil {
		repo.Close()
		return nil, err
	}
	if err := blobs.Init(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to initialise blob store: %w", err)
	}

	hub := websocket.NewHub(logger)
	publisher := events.NewEventPublisher(hub)

	ms := mediaService.NewService(repo, blobs, cfg.Media, logger,
		mediaService.WithMetrics(metrics.Default()),
		mediaService.WithNotifier(publisher),
	)
	ds := documentService.NewService(repo, ms, publisher, logger)

	return &App{
		Config:    cfg,
		Storage:   repo,
		Redis:     redisClient,
		Blobs:     blobs,
		Hub:       hub,
		Media:     ms,
		Documents: ds,
		Logger:    logger,
	}, nil
}

// Handler returns the HTTP surface.
func (a *App) Handler() http.Handler {
	return router.New(router.Deps{
		Config:    a.Config,
		Media:     a.Media,
		Documents: a.Documents,
		Hub:       a.Hub,
		Redis:     a.Redis,
		Logger:    a.Logger,
	})
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	errs = append(errs, a.Storage.Close())
	return errors.Join(errs...)
}
