package secret

import (
	"context"
	"fmt"
	"os"
)

// Provider resolves a secret by reference.
//
// Contract:
//   - Implementations are safe for concurrent use.
//   - Implementations never log resolved values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}

// EnvProvider resolves secretref:env:<NAME> from the process environment.
// It is the provider the gateway registers by default.
type EnvProvider struct{}

// Name returns "env".
func (EnvProvider) Name() string { return "env" }

// Resolve looks up the named environment variable. Unset is an error.
func (EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	val, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", ref)
	}
	return val, nil
}

// Close is a no-op.
func (EnvProvider) Close() error { return nil }
