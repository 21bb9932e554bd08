package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

var ErrRateLimited = errors.New("rate limited")

// Deduplicator records deliveries so that a redelivery is recognized.
type Deduplicator interface {
	// Claim returns true if the key was not seen within the TTL.
	Claim(ctx context.Context, key model.DeliveryKey) (bool, error)
	// Release forgets a claimed key so the provider's retry is admitted again.
	Release(ctx context.Context, key model.DeliveryKey) error
}

// RateLimiter admits requests per provider.
type RateLimiter interface {
	Allow(ctx context.Context, provider model.Provider) error
}

type redisDeduplicator struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisDeduplicator stores one key per delivery with SET NX PX.
func NewRedisDeduplicator(client redis.Cmdable, prefix string, ttl time.Duration) Deduplicator {
	return &redisDeduplicator{client: client, prefix: prefix, ttl: ttl}
}

func (d *redisDeduplicator) key(k model.DeliveryKey) string {
	return fmt.Sprintf("%s:delivery:%s", d.prefix, k.String())
}

func (d *redisDeduplicator) Claim(ctx context.Context, key model.DeliveryKey) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(key), time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claiming delivery %s: %w", key, err)
	}
	return ok, nil
}

func (d *redisDeduplicator) Release(ctx context.Context, key model.DeliveryKey) error {
	if err := d.client.Del(ctx, d.key(key)).Err(); err != nil {
		return fmt.Errorf("releasing delivery %s: %w", key, err)
	}
	return nil
}

type redisRateLimiter struct {
	client redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedisRateLimiter counts requests per provider in fixed windows aligned to
// multiples of window.
func NewRedisRateLimiter(client redis.Cmdable, prefix string, limit int64, window time.Duration) RateLimiter {
	return &redisRateLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *redisRateLimiter) Allow(ctx context.Context, provider model.Provider) error {
	bucket := l.now().UnixNano() / int64(l.window)
	key := fmt.Sprintf("%s:ratelimit:%s:%d", l.prefix, provider, bucket)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.PExpire(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("incrementing rate counter: %w", err)
	}

	if incr.Val() > l.limit {
		return ErrRateLimited
	}
	return nil
}
