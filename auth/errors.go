package auth

import "errors"

// Sentinel errors for gate decisions and introspection.
var (
	// ErrMissingCredential indicates no usable bearer token was presented.
	ErrMissingCredential = errors.New("auth: missing credential")

	// ErrTokenInactive indicates the authorization server answered and
	// rejected the token.
	ErrTokenInactive = errors.New("auth: token inactive")

	// ErrIntrospectionFailed indicates the introspection exchange could
	// not be completed (network failure, timeout, bad response).
	ErrIntrospectionFailed = errors.New("auth: introspection failed")

	// ErrServiceUnavailable indicates the authorization server could not
	// be reached at all. Kept distinct from ErrTokenInactive so a broken
	// auth service is never reported as a bad credential.
	ErrServiceUnavailable = errors.New("auth: authorization server unavailable")
)
