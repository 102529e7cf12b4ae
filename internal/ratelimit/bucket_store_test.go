package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketStoreInitialAdmission(t *testing.T) {
	store := NewBucketStore(NewMemoryStoreClient(), "ratelimit:", 24*time.Hour)
	now := time.Now()

	decision, err := store.Acquire(context.Background(), "tenant-a", 10, 0.1, now)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 9, decision.Remaining)
}

func TestBucketStoreExhaustionAndRetryAfter(t *testing.T) {
	store := NewBucketStore(NewMemoryStoreClient(), "ratelimit:", 24*time.Hour)
	now := time.Now()

	for i := 0; i < 10; i++ {
		decision, err := store.Acquire(context.Background(), "tenant-b", 10, 0.1, now)
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "request %d should be allowed", i+1)
	}

	decision, err := store.Acquire(context.Background(), "tenant-b", 10, 0.1, now)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.GreaterOrEqual(t, decision.RetryAfterSeconds, 1)
}

func TestBucketStoreIdentifierIsolation(t *testing.T) {
	store := NewBucketStore(NewMemoryStoreClient(), "ratelimit:", 24*time.Hour)
	now := time.Now()

	for i := 0; i < 10; i++ {
		decision, err := store.Acquire(context.Background(), "a", 10, 0.1, now)
		require.NoError(t, err)
		require.True(t, decision.Allowed)
	}

	decision, err := store.Acquire(context.Background(), "a", 10, 0.1, now)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	for i := 0; i < 10; i++ {
		decision, err := store.Acquire(context.Background(), "b", 10, 0.1, now)
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "b's bucket must be unaffected by a")
	}
}

func TestBucketStoreRefillAfterWait(t *testing.T) {
	client := NewMemoryStoreClient()
	store := NewBucketStore(client, "ratelimit:", 24*time.Hour)
	now := time.Now()

	for i := 0; i < 10; i++ {
		_, err := store.Acquire(context.Background(), "tenant-c", 10, 0.1, now)
		require.NoError(t, err)
	}

	later := now.Add(10 * time.Second)
	decision, err := store.Acquire(context.Background(), "tenant-c", 10, 0.1, later)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)
}

func TestBucketStorePolicyFreezesOnCreation(t *testing.T) {
	client := NewMemoryStoreClient()
	store := NewBucketStore(client, "ratelimit:", 24*time.Hour)
	now := time.Now()

	_, err := store.Acquire(context.Background(), "tenant-d", 10, 0.1, now)
	require.NoError(t, err)

	// a racing caller with a different policy view must not shrink the
	// live bucket; the stored capacity wins.
	decision, err := store.Acquire(context.Background(), "tenant-d", 2, 1.0, now)
	require.NoError(t, err)
	assert.Equal(t, 8, decision.Remaining) // second consume against the stored capacity 10, not the caller's 2
}

func TestBucketStoreRejectsEmptyIdentifier(t *testing.T) {
	store := NewBucketStore(NewMemoryStoreClient(), "ratelimit:", 24*time.Hour)
	_, err := store.Acquire(context.Background(), "", 10, 0.1, time.Now())
	require.Error(t, err)
	assert.Equal(t, KindInvalidRequest, KindOf(err))
}

func TestBucketStoreRejectsMisconfiguredPolicy(t *testing.T) {
	store := NewBucketStore(NewMemoryStoreClient(), "ratelimit:", 24*time.Hour)
	_, err := store.Acquire(context.Background(), "tenant-e", 0, 0.1, time.Now())
	require.Error(t, err)
	assert.Equal(t, KindPolicyMisconfig, KindOf(err))
}

func TestBucketStoreRecoversCorruptFields(t *testing.T) {
	client := NewMemoryStoreClient()
	require.NoError(t, client.WritePipeline(context.Background(), "ratelimit:tenant-f", map[string]string{
		fieldTokens:     "not-a-number",
		fieldLastRefill: "also-not-a-number",
		fieldBucketSize: "-5",
		fieldRefillRate: "0.2",
	}, 24*time.Hour))

	store := NewBucketStore(client, "ratelimit:", 24*time.Hour)
	decision, err := store.Acquire(context.Background(), "tenant-f", 10, 0.1, time.Now())
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
