package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/media-service/internal/config"
)

func newLocal(t *testing.T) *Local {
	t.Helper()
	l := NewLocal(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, l.Init(context.Background()))
	return l
}

func TestNewKeyIsDateSharded(t *testing.T) {
	now := time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC)
	key := NewKey(now, "PDF")

	assert.Regexp(t, regexp.MustCompile(`^2024/03/[0-9a-f-]{36}\.pdf$`), key)
	assert.NotEqual(t, key, NewKey(now, ".pdf"))
	assert.True(t, strings.HasPrefix(NewKey(now, ""), "2024/03/"))
}

func TestLocalPutOpenDelete(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	data := []byte("lecture notes")

	require.NoError(t, l.Put(ctx, "2024/03/a.txt", bytes.NewReader(data), int64(len(data)), "text/plain"))

	rc, err := l.Open(ctx, "2024/03/a.txt")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, data, got)

	require.NoError(t, l.Delete(ctx, "2024/03/a.txt"))
	assert.ErrorIs(t, l.Delete(ctx, "2024/03/a.txt"), ErrNotFound)

	_, err = l.Open(ctx, "2024/03/a.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestLocalPutCleansUpOnFailure(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)

	err := l.Put(ctx, "2024/03/b.bin", io.MultiReader(strings.NewReader("abc"), failingReader{}), -1, "")
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(l.Root, "2024", "03"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalPutShortWrite(t *testing.T) {
	l := newLocal(t)
	err := l.Put(context.Background(), "x/y.bin", strings.NewReader("abc"), 10, "")
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(l.Root, "x", "y.bin"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	for _, key := range []string{"", "../etc/passwd", "/abs/path", "a/../../b"} {
		err := l.Put(ctx, key, strings.NewReader("x"), 1, "")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocalCancelledContext(t *testing.T) {
	l := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Put(ctx, "2024/01/c.txt", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSelectsDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.BlobStore.Driver = config.BlobStoreLocal
	cfg.Media.UploadDir = t.TempDir()

	s, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Local{}, s)

	cfg.BlobStore.Driver = "tape"
	_, err = New(cfg)
	assert.Error(t, err)
}
