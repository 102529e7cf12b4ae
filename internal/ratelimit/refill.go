package ratelimit

import "math"

// Bucket is the in-memory representation of the persisted per-identifier
// state. capacity and rate travel with the bucket so a concurrent writer
// holding a stale policy view still refills against the authoritative
// limits.
type Bucket struct {
	Tokens     float64
	LastRefill int64 // milliseconds since the epoch
	Capacity   float64
	Rate       float64
}

// Decision is what the admission middleware turns into headers and a
// status code.
type Decision struct {
	Allowed           bool
	Remaining         int
	RetryAfterSeconds int
}

// Refill is the limiter's token arithmetic, a pure function with no
// I/O and no side effects. Given a bucket and the
// current time it returns the bucket's next state and the admission
// decision for this call. It never fails: callers are responsible for
// validating capacity and rate before calling it.
func Refill(bucket Bucket, nowMillis int64) (Bucket, Decision) {
	elapsedSeconds := float64(nowMillis-bucket.LastRefill) / 1000
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}

	refilled := math.Min(bucket.Capacity, bucket.Tokens+elapsedSeconds*bucket.Rate)

	var newTokens float64
	var decision Decision
	if refilled >= 1 {
		newTokens = refilled - 1
		decision = Decision{
			Allowed:           true,
			Remaining:         int(math.Floor(newTokens)),
			RetryAfterSeconds: 0,
		}
	} else {
		newTokens = refilled
		retryAfter := int(math.Ceil((1 - refilled) / bucket.Rate))
		decision = Decision{
			Allowed:           false,
			Remaining:         0,
			RetryAfterSeconds: retryAfter,
		}
	}

	newBucket := Bucket{
		Tokens:     newTokens,
		LastRefill: nowMillis,
		Capacity:   bucket.Capacity,
		Rate:       bucket.Rate,
	}
	return newBucket, decision
}
