package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flarenet/platform/internal/logger"
)

// Default field names on the wire. These are the on-wire contract; any
// shared-store client, present or future, must use exactly these keys.
const (
	fieldTokens     = "tokens"
	fieldLastRefill = "lastRefill"
	fieldBucketSize = "bucketSize"
	fieldRefillRate = "refillRate"
)

// BucketStore owns the read-modify-write cycle for one bucket keyed by
// identifier. It is the only component that talks to the StoreClient on
// the hot path.
type BucketStore struct {
	client    StoreClient
	keyPrefix string
	ttl       time.Duration

	// loggedCorruption remembers identifiers that have already produced
	// a corruption log line, so a hot, repeatedly-corrupt key does not
	// flood the log.
	loggedCorruption sync.Map
}

// NewBucketStore builds a store that prefixes every key with keyPrefix
// and refreshes each write's TTL to ttl.
func NewBucketStore(client StoreClient, keyPrefix string, ttl time.Duration) *BucketStore {
	return &BucketStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// Acquire is the bucket store's sole public operation: given an
// identifier and the caller's view of the policy, it returns the
// admission decision for this instant.
//
// The load and the write are not a compare-and-set. Two concurrent
// calls for the same identifier may both observe the same pre-state and
// both write a post-state; the store makes no attempt to serialize
// them beyond what the underlying key/value store does on its own. The
// refill arithmetic bounds the resulting over-admission to the number
// of concurrent racers, never more.
func (s *BucketStore) Acquire(ctx context.Context, identifier string, capacity, rate float64, now time.Time) (Decision, error) {
	if identifier == "" {
		return Decision{}, errInvalidRequest("identifier must not be empty")
	}
	if capacity <= 0 || rate <= 0 {
		return Decision{}, errPolicyMisconfig("capacity and rate must be positive")
	}

	key := s.keyPrefix + identifier

	fields, err := s.loadWithRetry(ctx, key)
	if err != nil {
		return Decision{}, err
	}

	bucket, isNew, corrupted := decodeBucket(fields, capacity, rate, now)
	if corrupted {
		s.logCorruptionOnce(identifier)
	}

	newBucket, decision := Refill(bucket, now.UnixMilli())

	writeFields := map[string]string{
		fieldTokens:     strconv.FormatFloat(newBucket.Tokens, 'f', -1, 64),
		fieldLastRefill: strconv.FormatInt(newBucket.LastRefill, 10),
	}
	// capacity and rate are written only on creation; a racing caller
	// with a stale policy view must never shrink a live bucket.
	if isNew {
		writeFields[fieldBucketSize] = strconv.FormatFloat(newBucket.Capacity, 'f', -1, 64)
		writeFields[fieldRefillRate] = strconv.FormatFloat(newBucket.Rate, 'f', -1, 64)
	}

	if err := s.client.WritePipeline(ctx, key, writeFields, s.ttl); err != nil {
		if KindOf(err) != KindStoreTransient {
			return Decision{}, err
		}
		select {
		case <-time.After(20 * time.Millisecond):
		case <-ctx.Done():
			return Decision{}, errStoreTransient("context cancelled during retry backoff", ctx.Err())
		}
		if err := s.client.WritePipeline(ctx, key, writeFields, s.ttl); err != nil {
			return Decision{}, errStoreUnavailable("retry exhausted", err)
		}
	}

	return decision, nil
}

// loadWithRetry reads the hash at key, retrying once inline with a
// short backoff on a transient failure before surfacing it as
// store-unavailable to the caller.
func (s *BucketStore) loadWithRetry(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.HashGetAll(ctx, key)
	if err == nil {
		return fields, nil
	}
	if KindOf(err) != KindStoreTransient {
		return nil, err
	}

	select {
	case <-time.After(20 * time.Millisecond):
	case <-ctx.Done():
		return nil, errStoreTransient("context cancelled during retry backoff", ctx.Err())
	}

	fields, err = s.client.HashGetAll(ctx, key)
	if err != nil {
		return nil, errStoreUnavailable("retry exhausted", err)
	}
	return fields, nil
}

// decodeBucket turns the raw hash fields into a Bucket. An absent or
// empty hash produces a fresh, full bucket seeded from the caller's
// policy view (isNew=true). A present hash always wins on capacity and
// rate over the caller's view; any individual field that fails to
// parse, or parses negative, is replaced with the corresponding policy
// default and corrupted is reported true.
func decodeBucket(fields map[string]string, callerCapacity, callerRate float64, now time.Time) (bucket Bucket, isNew, corrupted bool) {
	if len(fields) == 0 {
		return Bucket{
			Tokens:     callerCapacity,
			LastRefill: now.UnixMilli(),
			Capacity:   callerCapacity,
			Rate:       callerRate,
		}, true, false
	}

	capacity, ok := parsePositiveFloat(fields[fieldBucketSize])
	if !ok {
		capacity = callerCapacity
		corrupted = true
	}

	rate, ok := parsePositiveFloat(fields[fieldRefillRate])
	if !ok {
		rate = callerRate
		corrupted = true
	}

	tokens, ok := parseNonNegativeFloat(fields[fieldTokens])
	if !ok {
		tokens = capacity
		corrupted = true
	}
	if tokens > capacity {
		tokens = capacity
	}

	lastRefill, ok := parseInt64(fields[fieldLastRefill])
	if !ok {
		lastRefill = now.UnixMilli()
		corrupted = true
	}

	return Bucket{
		Tokens:     tokens,
		LastRefill: lastRefill,
		Capacity:   capacity,
		Rate:       rate,
	}, false, corrupted
}

func parsePositiveFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func parseNonNegativeFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func parseInt64(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (s *BucketStore) logCorruptionOnce(identifier string) {
	if _, loaded := s.loggedCorruption.LoadOrStore(identifier, struct{}{}); loaded {
		return
	}
	logger.Warn("rate limit bucket field corruption recovered with policy defaults", zap.String("identifier", identifier))
}
