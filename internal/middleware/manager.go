package middleware

import "net/http"

// Manager bundles the stateful middlewares the router wires per route:
// the admission gate and whether it is enabled at all (disabled in
// benchmark and some test environments).
type Manager struct {
	admission        *AdmissionMiddleware
	rateLimitEnabled bool
}

// NewManager builds a Manager around an already-constructed admission
// middleware.
func NewManager(admission *AdmissionMiddleware, rateLimitEnabled bool) *Manager {
	return &Manager{
		admission:        admission,
		rateLimitEnabled: rateLimitEnabled,
	}
}

// Admission wraps next with the rate limit admission gate, unless rate
// limiting has been disabled for this deployment.
func (m *Manager) Admission(next http.Handler) http.Handler {
	if !m.rateLimitEnabled {
		return next
	}
	return m.admission.Wrap(next)
}

// Idempotency exposes the idempotency middleware as a method so it
// chains alongside Admission in route construction.
func (m *Manager) Idempotency(next http.Handler) http.Handler {
	return IdempotencyMiddleware(next)
}
