package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// refillScript tops the bucket up for elapsed time and leaves the refilled
// count in tokens; both scripts share it.
const refillScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
		last_refill = now
	end
`

var (
	takeScript = redis.NewScript(refillScript + `
	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end
	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return allowed
`)

	peekScript = redis.NewScript(refillScript + `
	return tokens
`)
)

// TokenBucket is a per subject and action limiter backed by a Redis hash.
type TokenBucket struct {
	redis    *redis.Client
	capacity int64
	refill   int64 // tokens added per window
	window   time.Duration
}

func NewTokenBucket(redisClient *redis.Client, capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
	}
}

func (tb *TokenBucket) Capacity() int64 {
	return tb.capacity
}

func (tb *TokenBucket) Window() time.Duration {
	return tb.window
}

func key(subject, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", subject, action)
}

func (tb *TokenBucket) args() []interface{} {
	return []interface{}{tb.capacity, tb.refill, int64(tb.window.Seconds()), time.Now().Unix()}
}

// Allow consumes one token and reports whether the action may proceed.
func (tb *TokenBucket) Allow(ctx context.Context, subject, action string) (bool, error) {
	allowed, err := takeScript.Run(ctx, tb.redis, []string{key(subject, action)}, tb.args()...).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	return allowed == 1, nil
}

// GetRemaining returns the tokens left without consuming one.
func (tb *TokenBucket) GetRemaining(ctx context.Context, subject, action string) (int64, error) {
	remaining, err := peekScript.Run(ctx, tb.redis, []string{key(subject, action)}, tb.args()...).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}
	return remaining, nil
}

// Reset clears the rate limit for a specific subject and action
func (tb *TokenBucket) Reset(ctx context.Context, subject, action string) error {
	return tb.redis.Del(ctx, key(subject, action)).Err()
}
