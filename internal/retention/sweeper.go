package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Aldiwildan77/repo-pulse-sub000/common/logger"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/store"
)

// Sweeper deletes processing log entries older than MaxAge on a cron schedule.
type Sweeper struct {
	logs     store.ProcessingLogStore
	maxAge   time.Duration
	schedule string
	cron     *cron.Cron
	now      func() time.Time
}

func NewSweeper(logs store.ProcessingLogStore, maxAge time.Duration, schedule string) *Sweeper {
	return &Sweeper{
		logs:     logs,
		maxAge:   maxAge,
		schedule: schedule,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start registers the sweep and starts the cron runner.
func (s *Sweeper) Start(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "repopulse.retention"})

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			slog.ErrorContext(ctx, "processing log sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	slog.InfoContext(ctx, "retention sweeper started", "schedule", s.schedule, "max_age", s.maxAge)
	return nil
}

// Stop halts the runner and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.maxAge)
	deleted, err := s.logs.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting processing logs before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	slog.InfoContext(ctx, "processing logs swept", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}
