package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/media-service/internal/ratelimit"
	"github.com/princekumarofficial/media-service/internal/utils/response"
)

const (
	ActionUpload = "media.upload"
	ActionBulk   = "materials.bulk"
)

type RateLimitConfig struct {
	limiters map[string]*ratelimit.TokenBucket
	logger   *slog.Logger
}

// NewRateLimitConfig builds per user limiters. A nil client disables rate
// limiting.
func NewRateLimitConfig(redisClient *redis.Client, uploadsPerMinute int64, logger *slog.Logger) *RateLimitConfig {
	config := &RateLimitConfig{
		limiters: make(map[string]*ratelimit.TokenBucket),
		logger:   logger,
	}
	if redisClient == nil {
		return config
	}

	if uploadsPerMinute > 0 {
		config.limiters[ActionUpload] = ratelimit.NewTokenBucket(redisClient, uploadsPerMinute, uploadsPerMinute)
	}
	config.limiters[ActionBulk] = ratelimit.NewTokenBucket(redisClient, 10, 10)

	return config
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limiter, exists := rlc.limiters[action]
		if !exists {
			return next
		}
		limit := strconv.FormatInt(limiter.Capacity(), 10)
		reset := strconv.Itoa(int(limiter.Window().Seconds()))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Auth middleware runs first.
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("user not authenticated")))
				return
			}

			allowed, err := limiter.Allow(r.Context(), userID, action)
			if err != nil {
				// Fail open when Redis is unavailable.
				rlc.logger.Warn("rate limit check failed",
					slog.String("action", action),
					slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			remaining, _ := limiter.GetRemaining(r.Context(), userID, action)
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", reset)

			if !allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action string, handler http.HandlerFunc) http.Handler {
	return rlc.RateLimitMiddleware(action)(handler)
}
