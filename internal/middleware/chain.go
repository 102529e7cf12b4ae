package middleware

import "net/http"

// Wrapper is a standard net/http middleware: it takes the next handler
// in the chain and returns a handler that wraps it.
type Wrapper func(http.Handler) http.Handler

// Chain composes wrappers around handler in the order given, so the
// first wrapper listed runs first on the way in. Chain(h, A, B) builds
// A(B(h)).
func Chain(handler http.Handler, wrappers ...Wrapper) http.Handler {
	for i := len(wrappers) - 1; i >= 0; i-- {
		handler = wrappers[i](handler)
	}
	return handler
}
