package ratelimit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullBucket(capacity, rate float64, lastRefill int64) Bucket {
	return Bucket{Tokens: capacity, LastRefill: lastRefill, Capacity: capacity, Rate: rate}
}

func TestRefillCapacityCap(t *testing.T) {
	bucket := fullBucket(10, 0.1, 0)
	for i := 0; i < 20; i++ {
		var decision Decision
		bucket, decision = Refill(bucket, int64(i)*1000)
		assert.GreaterOrEqual(t, bucket.Tokens, 0.0)
		assert.LessOrEqual(t, bucket.Tokens, bucket.Capacity)
		assert.GreaterOrEqual(t, decision.Remaining, 0)
		assert.LessOrEqual(t, decision.Remaining, int(bucket.Capacity))
	}
}

func TestRefillInitialAdmission(t *testing.T) {
	bucket := fullBucket(10, 0.1, 0)
	newBucket, decision := Refill(bucket, 0)

	assert.True(t, decision.Allowed)
	assert.Equal(t, 9, decision.Remaining)
	assert.InDelta(t, 9.0, newBucket.Tokens, 1e-9)
}

func TestRefillExhaustion(t *testing.T) {
	capacity, rate := 10.0, 0.1
	bucket := fullBucket(capacity, rate, 0)

	// within < 1/rate seconds (10s), so no meaningful refill happens
	now := int64(0)
	for i := 0; i < int(capacity); i++ {
		decision, newBucket := mustAllow(t, bucket, now)
		assert.True(t, decision.Allowed)
		bucket = newBucket
	}

	newBucket, decision := Refill(bucket, now)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)
	assert.GreaterOrEqual(t, decision.RetryAfterSeconds, 1)
	_ = newBucket
}

func mustAllow(t *testing.T, bucket Bucket, now int64) (Decision, Bucket) {
	t.Helper()
	newBucket, decision := Refill(bucket, now)
	return decision, newBucket
}

func TestRefillMonotonicity(t *testing.T) {
	capacity, rate := 10.0, 0.1
	bucket := fullBucket(capacity, rate, 0)

	// drain to empty
	for i := 0; i < int(capacity); i++ {
		bucket, _ = Refill(bucket, 0)
	}

	_, decisionT1 := Refill(bucket, 1000)
	bucket2, _ := Refill(bucket, 1000)
	_, decisionT2 := Refill(bucket2, 5000)

	assert.GreaterOrEqual(t, decisionT2.Remaining, decisionT1.Remaining-1)
	assert.LessOrEqual(t, decisionT2.Remaining, int(capacity))
}

func TestRefillNoTokenHoarding(t *testing.T) {
	capacity, rate := 10.0, 1.0
	bucket := fullBucket(capacity, rate, 0)
	for i := 0; i < int(capacity); i++ {
		bucket, _ = Refill(bucket, 0)
	}

	k := 3
	waitMillis := int64(float64(k) / rate * 1000)
	_, decision := Refill(bucket, waitMillis)

	assert.LessOrEqual(t, decision.Remaining, k)
	assert.LessOrEqual(t, decision.Remaining, int(capacity))
}

func TestRefillClockSkewIsTreatedAsZeroElapsed(t *testing.T) {
	bucket := Bucket{Tokens: 3, LastRefill: 10_000, Capacity: 10, Rate: 1}
	newBucket, decision := Refill(bucket, 1_000) // now precedes lastRefill

	assert.InDelta(t, 2.0, newBucket.Tokens, 1e-9)
	assert.True(t, decision.Allowed)
	assert.Equal(t, int64(1_000), newBucket.LastRefill)
}

func TestRefillLastRefillAdvancesOnRejection(t *testing.T) {
	bucket := Bucket{Tokens: 0, LastRefill: 0, Capacity: 10, Rate: 0.1}
	newBucket, decision := Refill(bucket, 500)

	assert.False(t, decision.Allowed)
	assert.Equal(t, int64(500), newBucket.LastRefill)
	assert.InDelta(t, 0.05, newBucket.Tokens, 1e-9)
}

func TestRefillSlowRateDoesNotTruncateFractionalTokens(t *testing.T) {
	bucket := Bucket{Tokens: 0, LastRefill: 0, Capacity: 5, Rate: 0.1}

	// 5 seconds at 0.1/sec = 0.5 tokens accrued, below 1 so still denied,
	// but the fractional token must survive internally.
	newBucket, decision := Refill(bucket, 5000)
	assert.False(t, decision.Allowed)
	assert.InDelta(t, 0.5, newBucket.Tokens, 1e-9)

	// another 5 seconds reaches 1.0 exactly, now allowed.
	finalBucket, decision2 := Refill(newBucket, 10000)
	assert.True(t, decision2.Allowed)
	assert.InDelta(t, 0.0, finalBucket.Tokens, 1e-9)
}

func TestRefillRetryAfterMatchesScenario(t *testing.T) {
	// S3: pro plan, capacity 30 rate 0.5. 31st request within a second
	// returns Retry-After = 2.
	capacity, rate := 30.0, 0.5
	bucket := fullBucket(capacity, rate, 0)
	for i := 0; i < int(capacity); i++ {
		bucket, _ = Refill(bucket, 0)
	}

	_, decision := Refill(bucket, 0)
	assert.False(t, decision.Allowed)
	assert.Equal(t, int(math.Ceil((1-0)/rate)), decision.RetryAfterSeconds)
	assert.Equal(t, 2, decision.RetryAfterSeconds)
}
