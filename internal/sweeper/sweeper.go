// Package sweeper purges orphaned media on a cron schedule.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/princekumarofficial/media-service/internal/types"
)

// Cleaner is the catalog operation the sweeper drives.
type Cleaner interface {
	CleanupOrphaned(ctx context.Context, olderThanDays int) (types.BatchResult, error)
}

type Worker struct {
	cleaner       Cleaner
	olderThanDays int
	parser        cron.Parser
	logger        *slog.Logger
}

func New(cleaner Cleaner, olderThanDays int, logger *slog.Logger) *Worker {
	return &Worker{
		cleaner:       cleaner,
		olderThanDays: olderThanDays,
		parser:        cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		logger:        logger.With(slog.String("component", "sweeper")),
	}
}

// RunOnce performs a single sweep and logs its outcome.
func (w *Worker) RunOnce(ctx context.Context) (types.BatchResult, error) {
	startTime := time.Now()
	w.logger.Info("starting orphaned media cleanup", slog.Int("older_than_days", w.olderThanDays))

	result, err := w.cleaner.CleanupOrphaned(ctx, w.olderThanDays)
	if err != nil {
		w.logger.Error("orphaned media cleanup failed",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(startTime).Milliseconds()))
		return result, err
	}

	duration := time.Since(startTime)
	w.logger.Info("completed orphaned media cleanup",
		slog.Int("candidates", result.Requested),
		slog.Int("purged", result.Affected),
		slog.Int("failed", len(result.Failures)),
		slog.Int64("duration_ms", duration.Milliseconds()))
	return result, nil
}

// Start sweeps once immediately, then on every tick of schedule until ctx is
// done. A sweep still running when the next tick fires skips that tick.
func (w *Worker) Start(ctx context.Context, schedule string) error {
	if _, err := w.parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	cl := cronLogger{w.logger}
	c := cron.New(
		cron.WithParser(w.parser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(schedule, func() { _, _ = w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	w.logger.Info("sweeper started", slog.String("schedule", schedule))
	_, _ = w.RunOnce(ctx)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	w.logger.Info("sweeper stopped")
	return nil
}

// cronLogger routes robfig/cron's logging through slog.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append([]interface{}{slog.String("error", err.Error())}, keysAndValues...)...)
}
