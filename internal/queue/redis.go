package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Aldiwildan77/repo-pulse-sub000/common/logger"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

type StreamConfig struct {
	Stream    string        // Redis stream name
	Group     string        // Redis consumer group name
	Consumer  string        // Redis consumer name, stable across restarts of one instance
	MaxLen    int64         // Backlog bound; Enqueue reports ErrQueueFull beyond it
	BatchSize int64         // Entries read per XREADGROUP
	Block     time.Duration // How long one read blocks waiting for entries

	ReclaimInterval time.Duration // How often entries stuck on other consumers are claimed
	ReclaimMinIdle  time.Duration // Idle time after which a pending entry counts as stuck
}

// RedisQueue carries admitted deliveries over a Redis stream so a restart
// does not lose the backlog. An entry is acknowledged and deleted once it has
// been handed to a worker; it is never redelivered after that.
type RedisQueue struct {
	client redis.Cmdable
	cfg    StreamConfig
	tasks  chan Task

	mu      sync.RWMutex
	closed  bool
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewRedisQueue(ctx context.Context, client redis.Cmdable, cfg StreamConfig) (*RedisQueue, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Block <= 0 {
		cfg.Block = 2 * time.Second
	}
	if cfg.ReclaimInterval <= 0 {
		cfg.ReclaimInterval = 30 * time.Second
	}
	if cfg.ReclaimMinIdle <= 0 {
		cfg.ReclaimMinIdle = time.Minute
	}

	q := &RedisQueue{
		client: client,
		cfg:    cfg,
		tasks:  make(chan Task, cfg.BatchSize),
		done:   make(chan struct{}),
	}
	if err := q.ensureGroup(ctx); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *RedisQueue) ensureGroup(ctx context.Context) error {
	// "0" so a recreated group still sees entries already in the stream.
	err := q.client.XGroupCreateMkStream(ctx, q.cfg.Stream, q.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}

	if q.cfg.MaxLen > 0 {
		backlog, err := q.client.XLen(ctx, q.cfg.Stream).Result()
		if err != nil {
			return fmt.Errorf("reading stream length: %w", err)
		}
		if backlog >= q.cfg.MaxLen {
			return ErrQueueFull
		}
	}

	values, err := encodeTask(task)
	if err != nil {
		return err
	}
	if err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.cfg.Stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue delivery: %w", err)
	}

	slog.DebugContext(ctx, "delivery enqueued", "delivery", task.Delivery.String(), "stream", q.cfg.Stream)
	return nil
}

func (q *RedisQueue) Tasks() <-chan Task {
	return q.tasks
}

// Depth is the number of entries not yet handed to a worker.
func (q *RedisQueue) Depth() int {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	n, err := q.client.XLen(ctx, q.cfg.Stream).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

// Start begins reading the stream into the task channel. Entries left pending
// for this consumer by a previous run are delivered first.
func (q *RedisQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started || q.closed {
		return
	}
	q.started = true

	ctx, q.cancel = context.WithCancel(ctx)
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "repopulse.queue.consumer"})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		q.run(ctx)
	}()
	go func() {
		defer wg.Done()
		q.reclaimLoop(ctx)
	}()
	go func() {
		wg.Wait()
		close(q.tasks)
		close(q.done)
	}()
}

// Close stops accepting and reading tasks. Tasks already handed over stay
// readable; unread entries remain in the stream for the next start.
func (q *RedisQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	started := q.started
	q.mu.Unlock()

	if !started {
		close(q.tasks)
		return nil
	}
	q.cancel()
	<-q.done
	return nil
}

func (q *RedisQueue) run(ctx context.Context) {
	// "0" replays this consumer's pending entries, ">" reads new ones.
	cursor := "0"
	for ctx.Err() == nil {
		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.cfg.Group,
			Consumer: q.cfg.Consumer,
			Streams:  []string{q.cfg.Stream, cursor},
			Count:    q.cfg.BatchSize,
			Block:    q.cfg.Block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			slog.ErrorContext(ctx, "reading from stream failed", "error", err, "stream", q.cfg.Stream)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		var messages []redis.XMessage
		for _, s := range streams {
			messages = append(messages, s.Messages...)
		}
		if cursor == "0" && len(messages) == 0 {
			cursor = ">"
			continue
		}

		for _, msg := range messages {
			if !q.handOver(ctx, msg) {
				return
			}
		}
	}
}

// handOver passes one entry to the workers and removes it from the stream.
// It returns false when ctx ended first; the entry then stays pending.
func (q *RedisQueue) handOver(ctx context.Context, msg redis.XMessage) bool {
	task, err := decodeTask(msg)
	if err != nil {
		slog.ErrorContext(ctx, "dropping malformed stream entry", "error", err, "entry_id", msg.ID)
		q.ack(ctx, msg.ID)
		return true
	}

	select {
	case q.tasks <- task:
		q.ack(ctx, msg.ID)
		return true
	case <-ctx.Done():
		return false
	}
}

// reclaimLoop claims entries that another consumer read but never handed
// over, which happens when an instance dies between the two steps.
func (q *RedisQueue) reclaimLoop(ctx context.Context) {
	ticker := time.NewTicker(q.cfg.ReclaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := q.reclaimOnce(ctx); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "reclaim cycle failed", "error", err)
			}
		}
	}
}

func (q *RedisQueue) reclaimOnce(ctx context.Context) error {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: q.cfg.Stream,
		Group:  q.cfg.Group,
		Idle:   q.cfg.ReclaimMinIdle,
		Start:  "-",
		End:    "+",
		Count:  q.cfg.BatchSize,
	}).Result()
	if err != nil {
		return fmt.Errorf("xpending: %w", err)
	}

	for _, p := range pending {
		if p.Consumer == q.cfg.Consumer {
			continue
		}

		claimed, err := q.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   q.cfg.Stream,
			Group:    q.cfg.Group,
			Consumer: q.cfg.Consumer,
			MinIdle:  q.cfg.ReclaimMinIdle,
			Messages: []string{p.ID},
		}).Result()
		if err != nil {
			slog.ErrorContext(ctx, "claiming stale entry failed", "error", err, "entry_id", p.ID, "original_consumer", p.Consumer)
			continue
		}

		for _, msg := range claimed {
			slog.InfoContext(ctx, "reclaimed stale entry", "entry_id", msg.ID, "original_consumer", p.Consumer, "idle", p.Idle)
			if !q.handOver(ctx, msg) {
				return nil
			}
		}
	}
	return nil
}

func (q *RedisQueue) ack(ctx context.Context, id string) {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAck(ctx, q.cfg.Stream, q.cfg.Group, id)
		pipe.XDel(ctx, q.cfg.Stream, id)
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "acknowledging stream entry failed", "error", err, "entry_id", id)
	}
}

func encodeTask(task Task) (map[string]any, error) {
	headers, err := json.Marshal(task.Headers)
	if err != nil {
		return nil, fmt.Errorf("encoding headers: %w", err)
	}

	values := map[string]any{
		"provider":    string(task.Delivery.Provider),
		"delivery_id": task.Delivery.DeliveryID,
		"headers":     string(headers),
		"body":        string(task.Body),
		"enqueued_at": task.EnqueuedAt.UTC().Format(time.RFC3339Nano),
	}
	if task.TraceID != nil && *task.TraceID != "" {
		values["trace_id"] = *task.TraceID
	}
	return values, nil
}

func decodeTask(msg redis.XMessage) (Task, error) {
	provider, err := parseString(msg.Values, "provider")
	if err != nil {
		return Task{}, err
	}
	deliveryID, err := parseString(msg.Values, "delivery_id")
	if err != nil {
		return Task{}, err
	}
	body, err := parseString(msg.Values, "body")
	if err != nil {
		return Task{}, err
	}

	task := Task{
		Delivery: model.DeliveryKey{Provider: model.Provider(provider), DeliveryID: deliveryID},
		Body:     []byte(body),
	}

	if raw := parseOptionalString(msg.Values, "headers"); raw != "" {
		var headers http.Header
		if err := json.Unmarshal([]byte(raw), &headers); err != nil {
			return Task{}, fmt.Errorf("parsing headers: %w", err)
		}
		task.Headers = headers
	}
	if traceID := parseOptionalString(msg.Values, "trace_id"); traceID != "" {
		task.TraceID = &traceID
	}
	if raw := parseOptionalString(msg.Values, "enqueued_at"); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return Task{}, fmt.Errorf("parsing enqueued_at: %w", err)
		}
		task.EnqueuedAt = at
	}
	return task, nil
}

func parseString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	return fmt.Sprint(raw), nil
}

func parseOptionalString(values map[string]any, key string) string {
	raw, ok := values[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(raw)
}
