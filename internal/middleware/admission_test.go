package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarenet/platform/internal/ratelimit"
)

func newTestAdmission(client *ratelimit.MemoryStoreClient, failOpen bool) *AdmissionMiddleware {
	store := ratelimit.NewBucketStore(client, "ratelimit:", 24*time.Hour)
	resolver := ratelimit.NewResolver(10, 0.1)
	return NewAdmissionMiddleware(store, client, resolver, ratelimit.DegradationPolicy{FailOpen: failOpen})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// S1 (free plan, burst): capacity 10, rate 0.1. First 10 requests with
// x-api-key: k1 succeed with decreasing remaining; the 11th and 12th
// are denied with Retry-After >= 9.
func TestAdmissionScenarioFreeBurst(t *testing.T) {
	client := ratelimit.NewMemoryStoreClient()
	mw := newTestAdmission(client, false)
	handler := mw.Wrap(okHandler())

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("x-api-key", "k1")
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(9-i), w.Header().Get("X-RateLimit-Remaining"))
		assert.Empty(t, w.Header().Get("Retry-After"))
	}

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("x-api-key", "k1")
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, retryAfter, 9)

		var body deniedResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Too Many Requests", body.Error)
	}
}

// S4 (isolation): interleaving requests from two identifiers must not
// share bucket state.
func TestAdmissionScenarioIsolation(t *testing.T) {
	client := ratelimit.NewMemoryStoreClient()
	mw := newTestAdmission(client, false)
	handler := mw.Wrap(okHandler())

	call := func(key string) int {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("x-api-key", key)
		handler.ServeHTTP(w, r)
		return w.Code
	}

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, call("a"))
		assert.Equal(t, http.StatusOK, call("b"))
	}

	assert.Equal(t, http.StatusTooManyRequests, call("a"))
	assert.Equal(t, http.StatusTooManyRequests, call("b"))
}

// S5 (IP fallback): an IPv4-mapped-IPv6 client address must normalize
// to the same identifier as the raw IPv4 address.
func TestAdmissionScenarioIPFallback(t *testing.T) {
	client := ratelimit.NewMemoryStoreClient()
	mw := newTestAdmission(client, false)
	handler := mw.Wrap(okHandler())

	w1 := httptest.NewRecorder()
	r1 := httptest.NewRequest(http.MethodGet, "/", nil)
	r1.RemoteAddr = "[::ffff:10.0.0.1]:5555"
	handler.ServeHTTP(w1, r1)
	assert.Equal(t, "9", w1.Header().Get("X-RateLimit-Remaining"))

	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.RemoteAddr = "10.0.0.1:6666"
	handler.ServeHTTP(w2, r2)
	assert.Equal(t, "8", w2.Header().Get("X-RateLimit-Remaining"))
}

// S6 (store down, fail-closed): disabling the store mid-test rejects
// with 503 and performs no store write.
func TestAdmissionScenarioStoreDownFailClosed(t *testing.T) {
	client := ratelimit.NewMemoryStoreClient()
	mw := newTestAdmission(client, false)
	handler := mw.Wrap(okHandler())

	client.SetAvailable(false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("x-api-key", "k1")
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body unavailableResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "rate limiter unavailable", body.Error)

	fields, err := client.HashGetAll(r.Context(), "ratelimit:k1")
	require.NoError(t, err)
	assert.Nil(t, fields)
}

func TestAdmissionFailOpenPassesThroughWithoutHeaders(t *testing.T) {
	client := ratelimit.NewMemoryStoreClient()
	mw := newTestAdmission(client, true)
	handler := mw.Wrap(okHandler())

	client.SetAvailable(false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("x-api-key", "k1")
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}
