// Package blobstore writes and deletes media bytes. It holds no business
// rules: keys are chosen by the caller and every object is immutable.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/princekumarofficial/media-service/internal/config"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidKey = errors.New("invalid blob key")
)

type Store interface {
	// Init verifies or creates the storage root.
	Init(ctx context.Context) error
	// Put writes size bytes from r under key. A failed Put leaves nothing behind.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key and returns ErrNotFound when it does not exist.
	Delete(ctx context.Context, key string) error
}

// Presigner is implemented by stores that can hand out time-limited
// direct download URLs.
type Presigner interface {
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// NewKey returns a date-sharded key "<yyyy>/<mm>/<uuid><ext>".
func NewKey(now time.Time, ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(now.UTC().Format("2006"), now.UTC().Format("01"), uuid.NewString()+ext)
}

// New builds the store selected by cfg.BlobStore.Driver. Init is not called.
func New(cfg *config.Config) (Store, error) {
	switch cfg.BlobStore.Driver {
	case config.BlobStoreLocal:
		return NewLocal(cfg.Media.UploadDir), nil
	case config.BlobStoreMinIO:
		return NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown blob store driver %q", cfg.BlobStore.Driver)
	}
}
