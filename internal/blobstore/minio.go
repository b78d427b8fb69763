package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/princekumarofficial/media-service/internal/config"
)

// MinIO stores blobs as objects in a single bucket.
type MinIO struct {
	client     *minio.Client
	bucketName string
}

func NewMinIO(cfg config.MinIO) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &MinIO{client: client, bucketName: cfg.BucketName}, nil
}

// Init creates the bucket if it doesn't exist
func (m *MinIO) Init(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = m.client.MakeBucket(ctx, m.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

func (m *MinIO) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

func (m *MinIO) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := m.stat(ctx, key); err != nil {
		return nil, err
	}
	obj, err := m.client.GetObject(ctx, m.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return obj, nil
}

// Delete removes an object from storage. RemoveObject succeeds on missing
// keys, so existence is checked first.
func (m *MinIO) Delete(ctx context.Context, key string) error {
	if _, err := m.stat(ctx, key); err != nil {
		return err
	}
	return m.client.RemoveObject(ctx, m.bucketName, key, minio.RemoveObjectOptions{})
}

// PresignedURL creates a presigned URL for downloading
func (m *MinIO) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucketName, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}

func (m *MinIO) stat(ctx context.Context, key string) (minio.ObjectInfo, error) {
	info, err := m.client.StatObject(ctx, m.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return info, ErrNotFound
		}
		return info, fmt.Errorf("failed to stat object: %w", err)
	}
	return info, nil
}
