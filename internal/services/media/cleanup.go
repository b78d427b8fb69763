package media

import (
	"context"
	"log/slog"
	"time"

	"github.com/princekumarofficial/media-service/internal/storage"
	"github.com/princekumarofficial/media-service/internal/types"
	"github.com/princekumarofficial/media-service/internal/types/media"
)

// stalledPurgeGrace is how long a row may sit in the deleted status before a
// sweep assumes its purge was interrupted and finishes it.
const stalledPurgeGrace = 15 * time.Minute

// CleanupOrphaned purges objects that have been orphaned for at least
// olderThanDays. Only rows still orphaned and unreferenced at claim time are
// touched; a failure on one object does not stop the sweep.
func (s *Service) CleanupOrphaned(ctx context.Context, olderThanDays int) (types.BatchResult, error) {
	var result types.BatchResult
	if olderThanDays < 0 {
		return result, types.ErrNegativeAge
	}

	now := s.now().UTC()
	threshold := now.Add(-time.Duration(olderThanDays) * 24 * time.Hour)

	candidates, err := s.repo.ListMediaByStatus(ctx, media.StatusOrphaned, threshold)
	if err != nil {
		return result, err
	}
	stalled, err := s.repo.ListMediaByStatus(ctx, media.StatusDeleted, now.Add(-stalledPurgeGrace))
	if err != nil {
		return result, err
	}
	result.Requested = len(candidates) + len(stalled)

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		claimed, err := s.repo.MarkMediaDeleted(ctx, c.ID, storage.PurgeClaim{
			Unreferenced:   true,
			OrphanedBefore: threshold,
		})
		if err != nil {
			if !types.IsNotFound(err) {
				s.logger.Warn("cleanup claim failed", slog.String("media_id", c.ID), slog.String("error", err.Error()))
				result.Fail(c.ID, err)
			}
			continue
		}
		if claimed == nil {
			s.logger.Debug("orphan regained a reference, skipped", slog.String("media_id", c.ID))
			continue
		}
		s.purgeInto(ctx, &result, claimed)
	}

	for i := range stalled {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		s.purgeInto(ctx, &result, &stalled[i])
	}

	s.logger.Info("orphan cleanup finished",
		slog.Int("older_than_days", olderThanDays),
		slog.Int("candidates", result.Requested),
		slog.Int("purged", result.Affected),
		slog.Int("failed", len(result.Failures)))
	return result, nil
}

func (s *Service) purgeInto(ctx context.Context, result *types.BatchResult, obj *media.MediaObject) {
	if err := s.finishPurge(ctx, obj, "cleanup"); err != nil {
		s.logger.Warn("cleanup purge failed", slog.String("media_id", obj.ID), slog.String("error", err.Error()))
		result.Fail(obj.ID, err)
		return
	}
	result.Succeed()
}
