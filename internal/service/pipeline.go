package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aldiwildan77/repo-pulse-sub000/common/logger"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/mapper"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/metrics"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/queue"
)

// Pipeline processes one admitted delivery: normalize, then either dispatch,
// reconcile or update installations.
type Pipeline struct {
	dispatcher    *Dispatcher
	reconciler    *Reconciler
	installations *InstallationService
	metrics       *metrics.Metrics
}

func NewPipeline(dispatcher *Dispatcher, reconciler *Reconciler, installations *InstallationService, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		dispatcher:    dispatcher,
		reconciler:    reconciler,
		installations: installations,
		metrics:       m,
	}
}

func (p *Pipeline) Process(ctx context.Context, task queue.Task) error {
	start := time.Now()
	defer func() {
		p.metrics.DeliveryProcessed(task.Delivery.Provider.String(), time.Since(start))
	}()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Provider:   logger.Ptr(task.Delivery.Provider.String()),
		DeliveryID: logger.Ptr(task.Delivery.DeliveryID),
	})

	m, ok := mapper.New(task.Delivery.Provider)
	if !ok {
		return fmt.Errorf("no mapper for provider %s", task.Delivery.Provider)
	}

	ev, err := m.Map(task.Headers, task.Body)
	if err != nil {
		return fmt.Errorf("normalizing delivery: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventKind: logger.Ptr(ev.Kind().String()),
		RepoKey:   nonEmpty(ev.Origin().RepoKey),
	})
	slog.InfoContext(ctx, "delivery normalized", "queued_for", start.Sub(task.EnqueuedAt))

	deliveryID := task.Delivery.DeliveryID
	switch e := ev.(type) {
	case model.Ignored:
		slog.DebugContext(ctx, "delivery ignored", "reason", e.Reason)
		return nil
	case model.InstallationCreated, model.InstallationDeleted, model.InstallationReposChanged:
		return p.installations.Handle(ctx, ev)
	case model.PullRequestClosed, model.PullRequestReviewed:
		return p.reconciler.Reconcile(ctx, ev, deliveryID)
	default:
		return p.dispatcher.Dispatch(ctx, ev, deliveryID)
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
