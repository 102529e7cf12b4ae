package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDegradationPolicyReadyAlwaysProceeds(t *testing.T) {
	assert.Equal(t, OutcomeProceed, DegradationPolicy{FailOpen: true}.Evaluate(StoreReady))
	assert.Equal(t, OutcomeProceed, DegradationPolicy{FailOpen: false}.Evaluate(StoreReady))
}

func TestDegradationPolicyFailOpenPassesThrough(t *testing.T) {
	policy := DegradationPolicy{FailOpen: true}
	assert.Equal(t, OutcomePassThrough, policy.Evaluate(StoreUnavailable))
	assert.Equal(t, OutcomePassThrough, policy.Evaluate(StoreError))
}

func TestDegradationPolicyFailClosedRejects(t *testing.T) {
	policy := DegradationPolicy{FailOpen: false}
	assert.Equal(t, OutcomeReject, policy.Evaluate(StoreUnavailable))
	assert.Equal(t, OutcomeReject, policy.Evaluate(StoreError))
}
