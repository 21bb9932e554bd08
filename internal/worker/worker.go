package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Aldiwildan77/repo-pulse-sub000/common/logger"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/queue"
)

// Processor handles one admitted delivery.
type Processor interface {
	Process(ctx context.Context, task queue.Task) error
}

type Config struct {
	Concurrency int
}

// Pool runs Concurrency workers over a task channel. Deliveries are
// processed once: errors are logged, never retried.
type Pool struct {
	consumer  queue.Consumer
	processor Processor
	cfg       Config

	stopOnce  sync.Once
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer queue.Consumer, processor Processor, cfg Config) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Pool{
		consumer:  consumer,
		processor: processor,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run blocks until the task channel is closed and drained, or Stop is called.
func (p *Pool) Run(ctx context.Context) {
	defer close(p.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "repopulse.worker"})
	slog.InfoContext(ctx, "worker pool started", "concurrency", p.cfg.Concurrency)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p.loop(ctx, n)
		}(i)
	}
	wg.Wait()

	slog.InfoContext(ctx, "worker pool stopped")
}

// Stop asks workers to exit after their in-flight delivery and waits for them.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.stoppedCh
}

// Done is closed once Run has returned.
func (p *Pool) Done() <-chan struct{} {
	return p.stoppedCh
}

func (p *Pool) loop(ctx context.Context, n int) {
	tasks := p.consumer.Tasks()
	for {
		select {
		case <-p.stopCh:
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			p.handle(ctx, n, task)
		}
	}
}

func (p *Pool) handle(ctx context.Context, n int, task queue.Task) {
	// Admitted deliveries run to completion even during shutdown.
	ctx = context.WithoutCancel(ctx)

	traceID := ""
	if task.TraceID != nil {
		traceID = *task.TraceID
	}
	sc := logger.StartSpanFromTraceID(ctx, traceID, "worker.process_delivery")
	defer sc.End()

	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{
		Provider:   logger.Ptr(task.Delivery.Provider.String()),
		DeliveryID: logger.Ptr(task.Delivery.DeliveryID),
	})

	if err := p.processSafe(ctx, task); err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "delivery processing failed",
			"error", err,
			"worker", n)
	}
}

func (p *Pool) processSafe(ctx context.Context, task queue.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in delivery processing",
				"panic", r,
				"delivery", task.Delivery.String())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.processor.Process(ctx, task)
}
