package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local stores blobs as plain files below Root.
type Local struct {
	Root string
}

func NewLocal(root string) *Local {
	return &Local{Root: root}
}

func (l *Local) Init(_ context.Context) error {
	if l.Root == "" {
		return errors.New("blob store root is empty")
	}
	if err := os.MkdirAll(l.Root, 0o755); err != nil {
		return fmt.Errorf("failed to create blob store root: %w", err)
	}
	info, err := os.Stat(l.Root)
	if err != nil {
		return fmt.Errorf("failed to stat blob store root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("blob store root %s is not a directory", l.Root)
	}
	return nil
}

func (l *Local) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(l.Root, clean), nil
}

func (l *Local) Put(ctx context.Context, key string, r io.Reader, size int64, _ string) (err error) {
	dst, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create shard directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if size >= 0 && n != size {
		return fmt.Errorf("short write: wrote %d of %d bytes", n, size)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync blob: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close blob: %w", err)
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to move blob into place: %w", err)
	}
	return nil
}

func (l *Local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (l *Local) Delete(_ context.Context, key string) error {
	p, err := l.resolve(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
