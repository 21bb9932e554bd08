package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aldiwildan77/repo-pulse-sub000/common/id"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/metrics"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/store"
)

// ProcessingLog appends routing outcomes. Writes are best effort: a failed
// write is reported to the process logger and never returned.
type ProcessingLog struct {
	store   store.ProcessingLogStore
	metrics *metrics.Metrics
}

func NewProcessingLog(store store.ProcessingLogStore, m *metrics.Metrics) *ProcessingLog {
	return &ProcessingLog{store: store, metrics: m}
}

func (l *ProcessingLog) Record(ctx context.Context, entry model.ProcessingLogEntry) {
	if entry.ID == 0 {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	platform := "none"
	if entry.Platform != nil {
		platform = string(*entry.Platform)
	}
	l.metrics.NotificationRecorded(platform, string(entry.EventType), string(entry.Status))

	if err := l.store.Create(ctx, &entry); err != nil {
		slog.ErrorContext(ctx, "processing log write failed",
			"error", err,
			"status", entry.Status,
			"event_type", entry.EventType,
			"summary", entry.Summary)
	}
}
