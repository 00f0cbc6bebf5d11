package auth

import "context"

type contextKey int

const identityKey contextKey = iota

// WithIdentity attaches the identity an allowed request runs under. The
// dispatcher calls this before invoking a handler.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity attached to the context, nil
// when none is present.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// PrincipalFromContext returns the principal of the attached identity, or
// "" when no identity is present.
func PrincipalFromContext(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.Principal
	}
	return ""
}
