package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/flarenet/platform/internal/logger"
	"github.com/flarenet/platform/internal/ratelimit"
)

// deniedResponse and unavailableResponse are the exact wire shapes the
// admission middleware promises. They intentionally bypass the
// httputil envelope: the rate-limit response contract is a fixed,
// minimal JSON object and clients program directly against it.
type deniedResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

type unavailableResponse struct {
	Error string `json:"error"`
}

// AdmissionMiddleware is the HTTP admission gate in front of expensive,
// rate-limited downstream calls. It resolves an identifier and policy
// from the request, consults the bucket store, and either forwards the
// request or rejects it with 429/503 according to the degradation
// policy.
type AdmissionMiddleware struct {
	store      *ratelimit.BucketStore
	client     ratelimit.StoreClient
	resolver   *ratelimit.Resolver
	degradation ratelimit.DegradationPolicy
}

// NewAdmissionMiddleware wires a bucket store, the shared store client
// whose health signal gates degradation, a policy resolver, and a
// degradation policy into one request filter.
func NewAdmissionMiddleware(
	store *ratelimit.BucketStore,
	client ratelimit.StoreClient,
	resolver *ratelimit.Resolver,
	degradation ratelimit.DegradationPolicy,
) *AdmissionMiddleware {
	return &AdmissionMiddleware{
		store:       store,
		client:      client,
		resolver:    resolver,
		degradation: degradation,
	}
}

// Wrap returns a standard middleware function admitting requests to
// next per the limiter contract. The middleware never panics. An empty
// identifier or a misconfigured policy is answered with 500 and an
// invalid request with 400; any store error is converted to a
// pass-through or a 503 according to the degradation policy.
func (m *AdmissionMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identifier, capacity, rate := m.resolver.Resolve(r)
		if identifier == "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		if !m.client.Available() {
			m.degrade(w, r, next, ratelimit.StoreUnavailable)
			return
		}

		decision, err := m.store.Acquire(r.Context(), identifier, capacity, rate, time.Now())
		if err != nil {
			m.handleAcquireError(w, r, next, err)
			return
		}

		writeRateLimitHeaders(w, capacity, decision)

		if !decision.Allowed {
			writeDenied(w, decision.RetryAfterSeconds)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *AdmissionMiddleware) handleAcquireError(w http.ResponseWriter, r *http.Request, next http.Handler, err error) {
	switch ratelimit.KindOf(err) {
	case ratelimit.KindInvalidRequest:
		w.WriteHeader(http.StatusBadRequest)
	case ratelimit.KindPolicyMisconfig:
		w.WriteHeader(http.StatusInternalServerError)
	default:
		logger.Error("rate limit store operation failed", zap.Error(err))
		m.degrade(w, r, next, ratelimit.StoreError)
	}
}

// degrade applies the degradation policy for a non-ready store state.
// A pass-through never sets rate-limit headers, per the limiter
// contract: the caller has no admission decision to report.
func (m *AdmissionMiddleware) degrade(w http.ResponseWriter, r *http.Request, next http.Handler, state ratelimit.StoreState) {
	switch m.degradation.Evaluate(state) {
	case ratelimit.OutcomePassThrough:
		next.ServeHTTP(w, r)
	default:
		writeUnavailable(w)
	}
}

func writeRateLimitHeaders(w http.ResponseWriter, capacity float64, decision ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(int(capacity)))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	if decision.RetryAfterSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfterSeconds))
	}
}

func writeDenied(w http.ResponseWriter, retryAfterSeconds int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(deniedResponse{Error: "Too Many Requests", RetryAfter: retryAfterSeconds})
}

func writeUnavailable(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(unavailableResponse{Error: "rate limiter unavailable"})
}
