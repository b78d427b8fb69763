// Package media implements the media catalog: content-addressed uploads,
// reference counting and the purge paths that remove orphaned blobs.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/princekumarofficial/media-service/internal/blobstore"
	"github.com/princekumarofficial/media-service/internal/config"
	"github.com/princekumarofficial/media-service/internal/metrics"
	"github.com/princekumarofficial/media-service/internal/storage"
	"github.com/princekumarofficial/media-service/internal/types"
	"github.com/princekumarofficial/media-service/internal/types/media"
)

// maxInsertAttempts bounds the dedup retry loop. A retry only happens when a
// concurrent upload or purge of the same content wins a race.
const maxInsertAttempts = 3

// Notifier receives media lifecycle changes (orphaned, purged).
type Notifier interface {
	PublishMediaLifecycle(obj *media.MediaObject) error
}

type Service struct {
	repo     storage.MediaRepository
	blobs    blobstore.Store
	cfg      config.Media
	metrics  *metrics.MediaMetrics
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithMetrics(m *metrics.MediaMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new media service instance
func NewService(repo storage.MediaRepository, blobs blobstore.Store, cfg config.Media, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		blobs:  blobs,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "media")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store ingests an upload. Identical content already in the catalog gains a
// reference instead of a second blob; deduplicated reports which happened.
func (s *Service) Store(ctx context.Context, in media.UploadInput) (obj *media.MediaObject, deduplicated bool, err error) {
	defer func() {
		switch {
		case err != nil:
			s.metrics.Upload(metrics.OutcomeFailed, 0)
		case deduplicated:
			s.metrics.Upload(metrics.OutcomeDeduplicated, obj.SizeBytes)
		default:
			s.metrics.Upload(metrics.OutcomeNew, obj.SizeBytes)
		}
	}()

	if in.Category != "" && !in.Category.Valid() {
		return nil, false, types.ErrInvalidCategory
	}

	sp, err := spoolAndHash(in.Reader, s.cfg.TempDir, s.cfg.MaxFileSize)
	if err != nil {
		return nil, false, err
	}
	defer sp.remove()

	mimeType := resolveMimeType(in.MimeType, sp.head)
	if !allowed(mimeType, s.cfg.AllowedMimeTypes) {
		return nil, false, fmt.Errorf("%w: %s", types.ErrUnsupportedMedia, mimeType)
	}

	name := strings.TrimSpace(in.CustomName)
	if name == "" {
		name = in.OriginalName
	}
	category := in.Category
	if category == "" {
		category = media.CategoryFromMime(mimeType)
	}

	var candidate *media.MediaObject
	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		existing, err := s.repo.FindMediaByHash(ctx, sp.hash)
		if err != nil {
			s.discard(ctx, candidate)
			return nil, false, err
		}
		if existing != nil {
			obj, err := s.IncrementReference(ctx, existing.ID)
			if errors.Is(err, types.ErrMediaDeleted) || types.IsNotFound(err) {
				// Purged between lookup and increment; look again.
				continue
			}
			s.discard(ctx, candidate)
			if err != nil {
				return nil, false, err
			}
			s.logger.Info("upload deduplicated",
				slog.String("media_id", obj.ID),
				slog.String("content_hash", sp.hash),
				slog.Int("reference_count", obj.ReferenceCount))
			return obj, true, nil
		}

		if candidate == nil {
			candidate, err = s.writeBlob(ctx, sp, extensionFor(in.OriginalName, mimeType), name, mimeType, category, in.UploadedBy)
			if err != nil {
				return nil, false, err
			}
		}

		inserted, err := s.repo.InsertMedia(ctx, candidate)
		if err != nil {
			s.discard(ctx, candidate)
			return nil, false, err
		}
		if inserted {
			s.logger.Info("media stored",
				slog.String("media_id", candidate.ID),
				slog.String("storage_path", candidate.StoragePath),
				slog.Int64("size_bytes", candidate.SizeBytes))
			return candidate, false, nil
		}
		// Lost the insert race to an identical upload; retry as an increment.
	}

	s.discard(ctx, candidate)
	return nil, false, fmt.Errorf("store media %s: too much contention on content hash", sp.hash)
}

func (s *Service) writeBlob(ctx context.Context, sp *spooled, ext, name, mimeType string, category media.Category, uploadedBy string) (*media.MediaObject, error) {
	now := s.now().UTC()
	key := blobstore.NewKey(now, ext)

	f, err := os.Open(sp.path)
	if err != nil {
		return nil, &types.StorageWriteError{Op: "spool", Path: sp.path, Err: err}
	}
	defer f.Close()

	if err := s.blobs.Put(ctx, key, f, sp.size, mimeType); err != nil {
		return nil, &types.StorageWriteError{Op: "write", Path: key, Err: err}
	}

	return &media.MediaObject{
		ID:             uuid.NewString(),
		ContentHash:    sp.hash,
		StoragePath:    key,
		OriginalName:   name,
		MimeType:       mimeType,
		SizeBytes:      sp.size,
		Category:       category,
		ReferenceCount: 1,
		Status:         media.StatusActive,
		UploadedBy:     uploadedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// discard removes a blob written for a row that was never committed. It runs
// even when ctx is already cancelled.
func (s *Service) discard(ctx context.Context, candidate *media.MediaObject) {
	if candidate == nil {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), candidate.StoragePath); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		s.logger.Error("failed to remove uncommitted blob",
			slog.String("storage_path", candidate.StoragePath),
			slog.String("error", err.Error()))
	}
}

func (s *Service) Get(ctx context.Context, id string) (*media.MediaObject, error) {
	return s.repo.GetMedia(ctx, id)
}

// URL is the public location of a stored object.
func (s *Service) URL(obj *media.MediaObject) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + obj.StoragePath
}

// Response builds the read model returned to API callers.
func (s *Service) Response(obj *media.MediaObject) media.MediaResponse {
	return media.MediaResponse{
		ID:             obj.ID,
		OriginalName:   obj.OriginalName,
		URL:            s.URL(obj),
		MimeType:       obj.MimeType,
		SizeBytes:      obj.SizeBytes,
		SizeHuman:      media.HumanSize(obj.SizeBytes),
		Category:       obj.Category,
		Status:         obj.Status,
		ReferenceCount: obj.ReferenceCount,
		UploadedByID:   obj.UploadedBy,
		CreatedAt:      obj.CreatedAt,
	}
}

func (s *Service) UpdateMetadata(ctx context.Context, id string, patch media.MetadataPatch) (*media.MediaObject, error) {
	if patch.Category != nil && !patch.Category.Valid() {
		return nil, types.ErrInvalidCategory
	}
	if patch.OriginalName != nil {
		trimmed := strings.TrimSpace(*patch.OriginalName)
		if trimmed == "" {
			return nil, types.ErrNameRequired
		}
		patch.OriginalName = &trimmed
	}
	return s.repo.UpdateMediaMetadata(ctx, id, patch)
}

// Open streams the blob stored under storagePath.
func (s *Service) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	return s.blobs.Open(ctx, storagePath)
}

// DownloadURL returns a presigned URL when the blob store supports them.
func (s *Service) DownloadURL(ctx context.Context, storagePath string, expiry time.Duration) (string, bool, error) {
	p, ok := s.blobs.(blobstore.Presigner)
	if !ok {
		return "", false, nil
	}
	u, err := p.PresignedURL(ctx, storagePath, expiry)
	return u, err == nil, err
}

func (s *Service) Stats(ctx context.Context) (*media.Stats, error) {
	stats, err := s.repo.MediaStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalSizeHuman = media.HumanSize(stats.TotalSize)
	return stats, nil
}

// Delete removes a media object. Without force, a referenced object is
// refused with MediaInUseError and nothing changes.
func (s *Service) Delete(ctx context.Context, id string, force bool) (*media.MediaObject, error) {
	obj, err := s.repo.GetMedia(ctx, id)
	if err != nil {
		return nil, err
	}
	if obj.Status == media.StatusDeleted {
		// A previous purge stopped after claiming the row.
		return obj, s.finishPurge(ctx, obj, "delete")
	}
	if !force && obj.ReferenceCount > 0 {
		return nil, &types.MediaInUseError{ID: id, References: obj.ReferenceCount}
	}

	claimed, err := s.repo.MarkMediaDeleted(ctx, id, storage.PurgeClaim{Unreferenced: !force})
	if err != nil {
		return nil, err
	}
	if claimed == nil {
		cur, err := s.repo.GetMedia(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur.Status == media.StatusDeleted {
			return cur, s.finishPurge(ctx, cur, "delete")
		}
		return nil, &types.MediaInUseError{ID: id, References: cur.ReferenceCount}
	}

	if err := s.finishPurge(ctx, claimed, "delete"); err != nil {
		return nil, err
	}
	s.logger.Info("media deleted",
		slog.String("media_id", id),
		slog.Bool("force", force),
		slog.Int("reference_count", obj.ReferenceCount))
	return claimed, nil
}

// finishPurge removes the blob and then the row of an object already in the
// deleted status. A missing blob is tolerated; any other blob error leaves
// the row for a later sweep to retry.
func (s *Service) finishPurge(ctx context.Context, obj *media.MediaObject, reason string) error {
	ctx = context.WithoutCancel(ctx)

	if err := s.blobs.Delete(ctx, obj.StoragePath); err != nil {
		s.metrics.BlobDeleteFailure()
		if !errors.Is(err, blobstore.ErrNotFound) {
			return fmt.Errorf("delete blob %s: %w", obj.StoragePath, err)
		}
		s.logger.Warn("blob already missing during purge",
			slog.String("media_id", obj.ID),
			slog.String("storage_path", obj.StoragePath))
	}

	if err := s.repo.RemoveMedia(ctx, obj.ID); err != nil && !types.IsNotFound(err) {
		return err
	}

	s.metrics.Purge(reason)
	s.notify(obj)
	return nil
}

func (s *Service) notify(obj *media.MediaObject) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishMediaLifecycle(obj); err != nil {
		s.logger.Warn("failed to publish media event", slog.String("media_id", obj.ID), slog.String("error", err.Error()))
	}
}
