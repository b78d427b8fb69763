package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/media-service/internal/config"
	"github.com/princekumarofficial/media-service/internal/logger"
)

func workerConfig(t *testing.T, redisAddr, schedule string) *config.Config {
	return &config.Config{
		JWTSecret: "worker-secret",
		Database:  config.Database{Driver: config.DatabaseMemory},
		BlobStore: config.BlobStore{Driver: config.BlobStoreLocal},
		Redis:     config.Redis{Enabled: true, Address: redisAddr},
		Media: config.Media{
			UploadDir:   filepath.Join(t.TempDir(), "uploads"),
			BaseURL:     "/media/files",
			MaxFileSize: 1 << 20,
		},
		Cleanup: config.Cleanup{Schedule: schedule, OlderThanDays: 7},
	}
}

func TestRunClosesResourcesOnBadSchedule(t *testing.T) {
	mr := miniredis.RunT(t)

	err := run(t.Context(), workerConfig(t, mr.Addr(), "every now and then"), logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cleanup schedule")

	assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 },
		time.Second, 10*time.Millisecond, "redis connection left open")
}

func TestRunStopsWhenContextDone(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan error, 1)
	go func() { done <- run(ctx, workerConfig(t, mr.Addr(), "@every 1h"), logger.Discard()) }()

	require.Eventually(t, func() bool { return mr.CurrentConnectionCount() > 0 },
		5*time.Second, 10*time.Millisecond, "worker never connected")
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 },
		time.Second, 10*time.Millisecond, "redis connection left open")
}

func TestRunFailsWhenRedisUnreachable(t *testing.T) {
	err := run(t.Context(), workerConfig(t, "127.0.0.1:1", "@every 1h"), logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize cleanup worker")
}
