package auth

import (
	"context"
	"net/http"
)

// Denial reasons carried on gate decisions and surfaced in the error data
// of unauthorized responses.
const (
	// ReasonMissingCredential means no usable bearer token was presented.
	ReasonMissingCredential = "missing_credential"

	// ReasonInvalidCredential means the authorization server rejected the
	// token.
	ReasonInvalidCredential = "invalid_credential"

	// ReasonServiceUnavailable means the authorization server could not
	// be consulted. Always distinct from ReasonInvalidCredential.
	ReasonServiceUnavailable = "auth_service_unavailable"
)

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed  bool
	Reason   string
	Identity *Identity
}

// Allow builds an allowing decision carrying the identity.
func Allow(id *Identity) Decision {
	return Decision{Allowed: true, Identity: id}
}

// Deny builds a denying decision with the given reason.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Gate admits or rejects requests before they reach a handler.
//
// Contract:
//   - Check is safe for concurrent use.
//   - Check never panics and never returns a zero Decision: either
//     Allowed is true with a non-nil Identity, or Reason is set.
//   - Implementations never log or return raw credentials.
type Gate interface {
	Check(ctx context.Context, headers http.Header) Decision
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(ctx context.Context, headers http.Header) Decision

// Check calls the wrapped function.
func (f GateFunc) Check(ctx context.Context, headers http.Header) Decision {
	return f(ctx, headers)
}

// AllowAllGate admits every request with the anonymous identity. It is
// the gate for authentication mode "none" and performs no header
// inspection and no network I/O.
type AllowAllGate struct{}

// Check always allows.
func (AllowAllGate) Check(context.Context, http.Header) Decision {
	return Allow(AnonymousIdentity())
}

var _ Gate = AllowAllGate{}
var _ Gate = GateFunc(nil)
