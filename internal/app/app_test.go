package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/media-service/internal/cache"
	"github.com/princekumarofficial/media-service/internal/config"
	"github.com/princekumarofficial/media-service/internal/logger"
	"github.com/princekumarofficial/media-service/internal/storage/memory"
)

func memoryConfig(t *testing.T) *config.Config {
	return &config.Config{
		JWTSecret: "app-secret",
		Database:  config.Database{Driver: config.DatabaseMemory},
		BlobStore: config.BlobStore{Driver: config.BlobStoreLocal},
		Media: config.Media{
			UploadDir:   filepath.Join(t.TempDir(), "uploads"),
			BaseURL:     "/media/files",
			MaxFileSize: 1 << 20,
		},
	}
}

func TestNewWithMemoryStorage(t *testing.T) {
	a, err := New(t.Context(), memoryConfig(t), logger.Discard())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &memory.Store{}, a.Storage)
	assert.Nil(t, a.Redis)
	assert.DirExists(t, a.Config.Media.UploadDir)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOpenStorageWrapsCacheWhenRedisEnabled(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig(t)
	cfg.Redis = config.Redis{Enabled: true, Address: mr.Addr()}

	repo, client, err := OpenStorage(t.Context(), cfg, logger.Discard())
	require.NoError(t, err)
	defer client.Close()

	assert.IsType(t, &cache.CacheService{}, repo)
}

func TestOpenStorageFailsWhenRedisUnreachable(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Redis = config.Redis{Enabled: true, Address: "127.0.0.1:1"}

	_, _, err := OpenStorage(t.Context(), cfg, logger.Discard())
	assert.Error(t, err)
}
