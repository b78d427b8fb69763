package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/media-service/internal/storage/memory"
	"github.com/princekumarofficial/media-service/internal/storage/storagetest"
)

func setup(t *testing.T) (*CacheService, *memory.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := memory.New()
	return NewCacheService(store, client), store, mr
}

func TestCacheContract(t *testing.T) {
	c, _, _ := setup(t)
	storagetest.Run(t, c)
}

func TestGetMediaReadThrough(t *testing.T) {
	ctx := context.Background()
	c, _, mr := setup(t)

	m := storagetest.NewMedia(1)
	_, err := c.InsertMedia(ctx, m)
	require.NoError(t, err)

	got, err := c.GetMedia(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.True(t, mr.Exists(fmt.Sprintf(MediaKey, m.ID)))
}

func TestCounterChangesInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _, mr := setup(t)

	m := storagetest.NewMedia(1)
	_, err := c.InsertMedia(ctx, m)
	require.NoError(t, err)
	_, err = c.GetMedia(ctx, m.ID)
	require.NoError(t, err)
	_, err = c.MediaStats(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists(MediaStatsKey))

	_, err = c.IncrementReference(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(fmt.Sprintf(MediaKey, m.ID)))
	assert.False(t, mr.Exists(MediaStatsKey))

	got, err := c.GetMedia(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ReferenceCount)
}

func TestCounterChangeInvalidatesAfterCancel(t *testing.T) {
	c, _, mr := setup(t)

	m := storagetest.NewMedia(1)
	_, err := c.InsertMedia(context.Background(), m)
	require.NoError(t, err)
	_, err = c.GetMedia(context.Background(), m.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(fmt.Sprintf(MediaKey, m.ID)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// the memory store ignores ctx, so the write lands after the request is gone
	_, err = c.IncrementReference(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(fmt.Sprintf(MediaKey, m.ID)))

	got, err := c.GetMedia(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ReferenceCount)
}

func TestMissesAreNotCached(t *testing.T) {
	c, _, mr := setup(t)
	_, err := c.GetMedia(context.Background(), "missing")
	require.Error(t, err)
	assert.False(t, mr.Exists(fmt.Sprintf(MediaKey, "missing")))
}
