package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/media-service/internal/storage"
	"github.com/princekumarofficial/media-service/internal/types/documents"
	"github.com/princekumarofficial/media-service/internal/types/media"
)

// CacheService wraps storage with Redis caching of media rows and stats.
// Document reads pass straight through.
type CacheService struct {
	storage storage.Storage
	redis   *redis.Client
}

var _ storage.Storage = (*CacheService)(nil)

// NewCacheService creates a new cache service
func NewCacheService(storage storage.Storage, redisClient *redis.Client) *CacheService {
	return &CacheService{
		storage: storage,
		redis:   redisClient,
	}
}

// Cache key patterns
const (
	MediaKey      = "media:%s"    // media:mediaID
	MediaStatsKey = "media:stats" // aggregate usage
)

// Cache durations
const (
	MediaCacheDuration = 10 * time.Minute
	StatsCacheDuration = 1 * time.Minute
)

func (c *CacheService) getJSON(ctx context.Context, key string, dst any) bool {
	cached, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(cached, dst) == nil
}

func (c *CacheService) setJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		slog.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// InvalidateMedia drops the cached row and the stats aggregate. It runs
// even when ctx is already cancelled, since the storage write may have landed.
func (c *CacheService) InvalidateMedia(ctx context.Context, mediaID string) {
	ctx = context.WithoutCancel(ctx)
	if err := c.redis.Del(ctx, fmt.Sprintf(MediaKey, mediaID), MediaStatsKey).Err(); err != nil {
		slog.Warn("cache invalidation failed", slog.String("media_id", mediaID), slog.String("error", err.Error()))
	}
}

// GetMedia returns the cached row or fetches it from storage.
func (c *CacheService) GetMedia(ctx context.Context, id string) (*media.MediaObject, error) {
	key := fmt.Sprintf(MediaKey, id)

	var cached media.MediaObject
	if c.getJSON(ctx, key, &cached) {
		return &cached, nil
	}

	m, err := c.storage.GetMedia(ctx, id)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, m, MediaCacheDuration)
	return m, nil
}

func (c *CacheService) MediaStats(ctx context.Context) (*media.Stats, error) {
	var cached media.Stats
	if c.getJSON(ctx, MediaStatsKey, &cached) {
		return &cached, nil
	}

	stats, err := c.storage.MediaStats(ctx)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, MediaStatsKey, stats, StatsCacheDuration)
	return stats, nil
}

// FindMediaByHash always hits storage; dedup must see the authoritative row.
func (c *CacheService) FindMediaByHash(ctx context.Context, hash string) (*media.MediaObject, error) {
	return c.storage.FindMediaByHash(ctx, hash)
}

func (c *CacheService) InsertMedia(ctx context.Context, obj *media.MediaObject) (bool, error) {
	ok, err := c.storage.InsertMedia(ctx, obj)
	if ok {
		c.redis.Del(context.WithoutCancel(ctx), MediaStatsKey)
	}
	return ok, err
}

func (c *CacheService) UpdateMediaMetadata(ctx context.Context, id string, patch media.MetadataPatch) (*media.MediaObject, error) {
	defer c.InvalidateMedia(ctx, id)
	return c.storage.UpdateMediaMetadata(ctx, id, patch)
}

func (c *CacheService) IncrementReference(ctx context.Context, id string) (*media.MediaObject, error) {
	defer c.InvalidateMedia(ctx, id)
	return c.storage.IncrementReference(ctx, id)
}

func (c *CacheService) DecrementReference(ctx context.Context, id string) (*media.MediaObject, bool, error) {
	defer c.InvalidateMedia(ctx, id)
	return c.storage.DecrementReference(ctx, id)
}

func (c *CacheService) MarkMediaDeleted(ctx context.Context, id string, claim storage.PurgeClaim) (*media.MediaObject, error) {
	defer c.InvalidateMedia(ctx, id)
	return c.storage.MarkMediaDeleted(ctx, id, claim)
}

func (c *CacheService) RemoveMedia(ctx context.Context, id string) error {
	defer c.InvalidateMedia(ctx, id)
	return c.storage.RemoveMedia(ctx, id)
}

func (c *CacheService) ListMediaByStatus(ctx context.Context, status media.Status, before time.Time) ([]media.MediaObject, error) {
	return c.storage.ListMediaByStatus(ctx, status, before)
}

// Methods to pass through to storage (implement storage.Storage interface)
func (c *CacheService) CreateDocument(ctx context.Context, doc *documents.Document) error {
	return c.storage.CreateDocument(ctx, doc)
}

func (c *CacheService) GetDocument(ctx context.Context, kind documents.Kind, id string) (*documents.Document, error) {
	return c.storage.GetDocument(ctx, kind, id)
}

func (c *CacheService) UpdateDocument(ctx context.Context, doc *documents.Document) error {
	return c.storage.UpdateDocument(ctx, doc)
}

func (c *CacheService) DeleteDocument(ctx context.Context, kind documents.Kind, id string) error {
	return c.storage.DeleteDocument(ctx, kind, id)
}

func (c *CacheService) ListDocumentsByUploader(ctx context.Context, kind documents.Kind, uploaderID string) ([]documents.Document, error) {
	return c.storage.ListDocumentsByUploader(ctx, kind, uploaderID)
}

func (c *CacheService) Close() error {
	return c.storage.Close()
}
