package cache

import (
	"net/http"

	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/media-service/internal/utils/response"
)

// CacheStats represents cache performance statistics
type CacheStats struct {
	RedisConnected bool     `json:"redis_connected"`
	CacheKeys      []string `json:"cache_keys_sample"`
	MediaKeyCount  int      `json:"media_keys"`
	KeyCount       int      `json:"total_keys"`
}

// GetCacheStats returns cache performance statistics
func GetCacheStats(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats := CacheStats{RedisConnected: true}

		if err := redisClient.Ping(ctx).Err(); err != nil {
			stats.RedisConnected = false
			response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
			return
		}

		keys := redisClient.Keys(ctx, "media:*")
		if keys.Err() == nil {
			stats.MediaKeyCount = len(keys.Val())
			stats.CacheKeys = keys.Val()
			if len(stats.CacheKeys) > 10 {
				stats.CacheKeys = stats.CacheKeys[:10]
			}
		}

		dbSize := redisClient.DBSize(ctx)
		if dbSize.Err() == nil {
			stats.KeyCount = int(dbSize.Val())
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
	}
}

// ClearCache endpoint for administrative purposes. Rate limit buckets are
// never touched.
func ClearCache(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var pattern string
		switch r.URL.Query().Get("type") {
		case "stats":
			pattern = MediaStatsKey
		default:
			pattern = "media:*"
		}

		keys := redisClient.Keys(ctx, pattern)
		if keys.Err() != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(keys.Err()))
			return
		}

		var deletedCount int64
		if len(keys.Val()) > 0 {
			deleted := redisClient.Del(ctx, keys.Val()...)
			if deleted.Err() != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(deleted.Err()))
				return
			}
			deletedCount = deleted.Val()
		}

		result := map[string]interface{}{
			"pattern":      pattern,
			"deleted_keys": deletedCount,
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache cleared successfully", result))
	}
}
