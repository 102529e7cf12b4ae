package ratelimit

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// StoreClient is the shared, process-wide handle to the external
// key/value store the bucket store reads and writes through. It is
// injected rather than reached through package-level state so tests can
// supply a fake (see memory_store.go).
type StoreClient interface {
	// Available reports whether the last known connection state is
	// ready and no fatal error has been observed since.
	Available() bool
	// HashGetAll returns every field of the hash at key. A missing key
	// returns a nil map and a nil error, never redis.Nil.
	HashGetAll(ctx context.Context, key string) (map[string]string, error)
	// WritePipeline sets the given hash fields and refreshes the key's
	// TTL in a single round trip.
	WritePipeline(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	// Ping actively probes the store and updates the health signal
	// Available reflects.
	Ping(ctx context.Context) error
}

// RedisStoreClient is the production StoreClient, backed by a
// *redis.Client. It reconnects on transient failures and latches
// Available to false after exhausting its reconnect budget until a
// ping succeeds again.
type RedisStoreClient struct {
	client            *redis.Client
	opTimeout         time.Duration
	maxReconnectTries int
	available         atomic.Bool
}

// NewRedisStoreClient wraps client. connectTimeout bounds the initial
// ping performed here; opTimeout bounds every subsequent hash
// operation; maxReconnectTries bounds the number of ping attempts
// Ping performs before giving up.
func NewRedisStoreClient(client *redis.Client, connectTimeout, opTimeout time.Duration, maxReconnectTries int) (*RedisStoreClient, error) {
	c := &RedisStoreClient{
		client:            client,
		opTimeout:         opTimeout,
		maxReconnectTries: maxReconnectTries,
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		c.available.Store(false)
		return c, errStoreUnavailable("initial connect failed", err)
	}
	c.available.Store(true)
	return c, nil
}

func (c *RedisStoreClient) Available() bool {
	return c.available.Load()
}

func (c *RedisStoreClient) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

func (c *RedisStoreClient) WritePipeline(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = v
	}

	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return c.classify(ctx, err)
	}
	return nil
}

func (c *RedisStoreClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	var lastErr error
	tries := c.maxReconnectTries
	if tries <= 0 {
		tries = 1
	}
	for attempt := 0; attempt < tries; attempt++ {
		if err := c.client.Ping(ctx).Err(); err != nil {
			lastErr = err
			continue
		}
		c.available.Store(true)
		return nil
	}

	c.available.Store(false)
	return errStoreUnavailable("reconnect exhausted", lastErr)
}

// classify turns a raw redis error into a typed ratelimit.Error and
// updates the health signal. Deadline/context errors and connection
// failures are transient; anything else (a malformed command, for
// instance) is also reported transient since the bucket store never
// issues commands the store itself would reject for logical reasons.
func (c *RedisStoreClient) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errStoreTransient("operation timed out", err)
	}
	c.available.Store(false)
	return errStoreTransient("store operation failed", err)
}
