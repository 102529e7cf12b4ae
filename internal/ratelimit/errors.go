package ratelimit

import (
	"errors"
	"fmt"
)

// Kind classifies the failure modes the limiter core distinguishes
// internally. The admission middleware is the only caller that turns a
// Kind into an HTTP response.
type Kind int

const (
	// KindInvalidRequest covers an empty identifier or non-finite policy
	// values. Never retried.
	KindInvalidRequest Kind = iota
	// KindStoreUnavailable means the shared store client reports itself
	// not ready. Governed by the degradation policy.
	KindStoreUnavailable
	// KindStoreTransient means one operation failed or timed out. The
	// bucket store retries once inline before downgrading to
	// KindStoreUnavailable.
	KindStoreTransient
	// KindStoreCorruption means a stored field was unparsable. Recovered
	// locally with policy defaults; never surfaced to the client.
	KindStoreCorruption
	// KindPolicyMisconfig means the resolver produced capacity <= 0 or
	// rate <= 0.
	KindPolicyMisconfig
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindStoreTransient:
		return "store_transient"
	case KindStoreCorruption:
		return "store_corruption"
	case KindPolicyMisconfig:
		return "policy_misconfig"
	default:
		return "unknown"
	}
}

// Error is the typed error the bucket store and shared store client
// return. The refill engine never returns one; it has no failure mode.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ratelimit: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("ratelimit: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func errInvalidRequest(msg string) *Error          { return newError(KindInvalidRequest, msg, nil) }
func errPolicyMisconfig(msg string) *Error         { return newError(KindPolicyMisconfig, msg, nil) }
func errStoreUnavailable(msg string, e error) *Error { return newError(KindStoreUnavailable, msg, e) }
func errStoreTransient(msg string, e error) *Error   { return newError(KindStoreTransient, msg, e) }

// KindOf extracts the Kind from err, if it is (or wraps) a *Error.
// Any other error is reported as KindStoreTransient since it originated
// from an I/O operation the bucket store does not otherwise classify.
func KindOf(err error) Kind {
	var rlErr *Error
	if err == nil {
		return -1
	}
	if errors.As(err, &rlErr) {
		return rlErr.Kind
	}
	return KindStoreTransient
}
