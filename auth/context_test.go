package auth

import (
	"context"
	"testing"
)

func TestIdentityContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := IdentityFromContext(ctx); got != nil {
		t.Errorf("IdentityFromContext() on empty context = %v, want nil", got)
	}
	if got := PrincipalFromContext(ctx); got != "" {
		t.Errorf("PrincipalFromContext() on empty context = %q, want empty", got)
	}

	id := &Identity{Principal: "user-1", Method: MethodIntrospection}
	ctx = WithIdentity(ctx, id)

	if got := IdentityFromContext(ctx); got != id {
		t.Errorf("IdentityFromContext() = %v, want stored identity", got)
	}
	if got := PrincipalFromContext(ctx); got != "user-1" {
		t.Errorf("PrincipalFromContext() = %q, want user-1", got)
	}
}

func TestWithIdentityOverwrites(t *testing.T) {
	ctx := WithIdentity(context.Background(), &Identity{Principal: "first"})
	ctx = WithIdentity(ctx, &Identity{Principal: "second"})

	if got := PrincipalFromContext(ctx); got != "second" {
		t.Errorf("PrincipalFromContext() = %q, want second", got)
	}
}
