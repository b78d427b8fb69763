// Package router assembles the HTTP surface over the media and document
// services.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/media-service/internal/cache"
	"github.com/princekumarofficial/media-service/internal/config"
	documentHandlers "github.com/princekumarofficial/media-service/internal/http/handlers/documents"
	mediaHandlers "github.com/princekumarofficial/media-service/internal/http/handlers/media"
	wsHandlers "github.com/princekumarofficial/media-service/internal/http/handlers/websocket"
	"github.com/princekumarofficial/media-service/internal/http/middleware"
	"github.com/princekumarofficial/media-service/internal/metrics"
	documentService "github.com/princekumarofficial/media-service/internal/services/documents"
	mediaService "github.com/princekumarofficial/media-service/internal/services/media"
	"github.com/princekumarofficial/media-service/internal/types/documents"
	"github.com/princekumarofficial/media-service/internal/websocket"
)

type Deps struct {
	Config    *config.Config
	Media     *mediaService.Service
	Documents *documentService.Service
	Hub       *websocket.Hub
	// Redis is optional; without it uploads are not rate limited and the
	// cache admin routes are absent.
	Redis  *redis.Client
	Logger *slog.Logger
}

func New(d Deps) http.Handler {
	router := http.NewServeMux()

	auth := middleware.AuthMiddleware(d.Config.JWTSecret)
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }
	limits := middleware.NewRateLimitConfig(d.Redis, d.Config.Media.UploadsPerMinute, d.Logger)

	mh := mediaHandlers.NewMediaHandlers(d.Media, d.Config.Media.MaxFileSize, d.Logger)
	router.Handle("POST /media/upload", auth(limits.RateLimitedHandler(middleware.ActionUpload, mh.Upload())))
	router.Handle("GET /media/stats", protected(mh.Stats()))
	router.Handle("POST /media/cleanup", protected(mh.Cleanup(d.Config.Cleanup.OlderThanDays)))
	router.Handle("GET /media/files/{path...}", mh.ServeFile())
	router.Handle("GET /media/{id}", protected(mh.Get()))
	router.Handle("PATCH /media/{id}", protected(mh.UpdateMetadata()))
	router.Handle("DELETE /media/{id}", protected(mh.Delete()))

	dh := documentHandlers.NewDocumentHandlers(d.Documents, d.Logger)
	router.Handle("POST /materials/{kind}", protected(dh.Create(documents.OriginDirect)))
	router.Handle("POST /contributions/{kind}", protected(dh.Create(documents.OriginContribution)))
	router.Handle("GET /contributions", protected(dh.Contributions()))
	router.Handle("PATCH /materials/{kind}/{id}", protected(dh.Update()))
	router.Handle("PATCH /materials/{kind}/{id}/status", protected(dh.UpdateStatus()))
	router.Handle("POST /materials/{kind}/{id}/resubmit", protected(dh.Resubmit()))
	router.Handle("DELETE /materials/{kind}/{id}", protected(dh.Delete()))
	router.Handle("POST /materials/{kind}/bulk", auth(limits.RateLimitedHandler(middleware.ActionBulk, dh.Bulk())))

	if d.Hub != nil {
		router.HandleFunc("GET /ws", wsHandlers.WebSocketHandler(d.Hub, d.Config.JWTSecret, d.Logger))
	}
	router.Handle("GET /metrics", metrics.Handler())
	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	if d.Redis != nil {
		router.Handle("GET /admin/cache/stats", protected(cache.GetCacheStats(d.Redis)))
		router.Handle("DELETE /admin/cache", protected(cache.ClearCache(d.Redis)))
	}

	return router
}
