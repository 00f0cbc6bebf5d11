package auth

import (
	"slices"
	"time"
)

// Method indicates how an identity was established.
type Method string

const (
	// MethodAnonymous marks identities admitted without credentials.
	MethodAnonymous Method = "anonymous"

	// MethodIntrospection marks identities vouched for by the
	// authorization server.
	MethodIntrospection Method = "introspection"
)

// Identity is the principal attached to an allowed request.
type Identity struct {
	// Principal is the stable identifier for the caller.
	Principal string

	// ClientID is the OAuth client the token was issued to, when known.
	ClientID string

	// TenantID is the tenant the caller belongs to, when the
	// authorization server reports one.
	TenantID string

	// Roles are the caller's roles, when the authorization server
	// reports them.
	Roles []string

	// Scopes are the token's granted scopes.
	Scopes []string

	// Method records how the identity was established.
	Method Method

	// Claims holds the raw introspection claims. Never contains the
	// token itself.
	Claims map[string]any

	// ExpiresAt is the token expiry, zero when the server sent none.
	ExpiresAt time.Time

	// IssuedAt is the token issue time, zero when the server sent none.
	IssuedAt time.Time
}

// HasRole reports whether the identity carries the given role.
func (id *Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}

// HasScope reports whether the identity carries the given scope.
func (id *Identity) HasScope(scope string) bool {
	return slices.Contains(id.Scopes, scope)
}

// IsExpired reports whether the identity's token has expired. Identities
// without an expiry never expire.
func (id *Identity) IsExpired() bool {
	if id.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(id.ExpiresAt)
}

// IsAnonymous reports whether the identity was admitted without
// credentials.
func (id *Identity) IsAnonymous() bool {
	return id.Method == MethodAnonymous
}

// AnonymousIdentity is the identity attached by the allow-all gate.
func AnonymousIdentity() *Identity {
	return &Identity{
		Principal: "anonymous",
		Method:    MethodAnonymous,
		Claims:    make(map[string]any),
	}
}
