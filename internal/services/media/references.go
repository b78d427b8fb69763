package media

import (
	"context"
	"log/slog"

	"github.com/princekumarofficial/media-service/internal/types/media"
)

// IncrementReference records one more owning document. An orphan that gains
// an owner becomes active again.
func (s *Service) IncrementReference(ctx context.Context, id string) (*media.MediaObject, error) {
	obj, err := s.repo.IncrementReference(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.Reference("increment")
	s.logger.Debug("media reference added",
		slog.String("media_id", id),
		slog.Int("reference_count", obj.ReferenceCount))
	return obj, nil
}

// DecrementReference releases one owning document. The count never goes
// below zero; a decrement at zero is logged and otherwise ignored.
func (s *Service) DecrementReference(ctx context.Context, id string) (*media.MediaObject, error) {
	obj, clamped, err := s.repo.DecrementReference(ctx, id)
	if err != nil {
		return nil, err
	}
	if clamped {
		s.metrics.Clamp()
		s.logger.Warn("reference count already zero, decrement ignored",
			slog.String("media_id", id),
			slog.String("status", string(obj.Status)))
		return obj, nil
	}

	s.metrics.Reference("decrement")
	if obj.Status == media.StatusOrphaned {
		s.logger.Info("media orphaned", slog.String("media_id", id))
		s.notify(obj)
	}
	return obj, nil
}
