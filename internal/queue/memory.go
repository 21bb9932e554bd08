package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

type Producer interface {
	Enqueue(ctx context.Context, task Task) error
	Close() error
}

type Consumer interface {
	Tasks() <-chan Task
}

// Queue is both ends of a task queue plus its current backlog.
type Queue interface {
	Producer
	Consumer
	Depth() int
}

// MemoryQueue is a bounded in-process queue. Enqueue never blocks: a full
// buffer is reported as ErrQueueFull so the caller can shed load.
type MemoryQueue struct {
	tasks  chan Task
	mu     sync.RWMutex
	closed bool
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	return &MemoryQueue{tasks: make(chan Task, size)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}

	select {
	case q.tasks <- task:
		slog.DebugContext(ctx, "delivery enqueued",
			"delivery", task.Delivery.String(),
			"depth", len(q.tasks))
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Tasks() <-chan Task {
	return q.tasks
}

// Depth is the number of buffered tasks.
func (q *MemoryQueue) Depth() int {
	return len(q.tasks)
}

// Close stops accepting tasks. Buffered tasks stay readable until drained.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.tasks)
	return nil
}
