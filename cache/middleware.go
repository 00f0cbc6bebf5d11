package cache

import (
	"context"
	"encoding/json"
)

// InvokeFunc is the continuation the middleware wraps: the actual tool
// invocation producing a JSON-serializable result.
type InvokeFunc func(ctx context.Context, args map[string]any) (any, error)

// Middleware caches tool results around an InvokeFunc.
//
// Results are stored as JSON, so a cache hit returns the unmarshalled
// form of the original result rather than the identical Go value.
type Middleware struct {
	cache  Cache
	keyer  Keyer
	policy Policy
}

// NewMiddleware creates a caching middleware. A nil keyer falls back to
// the default SHA-256 keyer.
func NewMiddleware(c Cache, keyer Keyer, policy Policy) *Middleware {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &Middleware{cache: c, keyer: keyer, policy: policy}
}

// Execute invokes the tool through the cache. Mutating tools bypass the
// cache unless the policy opts in, and errors are never cached.
func (m *Middleware) Execute(ctx context.Context, tool string, mutating bool, args map[string]any, invoke InvokeFunc) (any, error) {
	if m.cache == nil || !m.policy.ShouldCache() {
		return invoke(ctx, args)
	}
	if mutating && !m.policy.CacheMutating {
		return invoke(ctx, args)
	}

	key, err := m.keyer.Key(tool, args)
	if err != nil {
		// Unkeyable arguments fall through to an uncached invocation.
		return invoke(ctx, args)
	}

	if raw, ok := m.cache.Get(ctx, key); ok {
		var result any
		if err := json.Unmarshal(raw, &result); err == nil {
			return result, nil
		}
		// A corrupt entry is dropped and the call proceeds uncached.
		_ = m.cache.Delete(ctx, key)
	}

	result, err := invoke(ctx, args)
	if err != nil {
		return result, err
	}

	if raw, err := json.Marshal(result); err == nil {
		_ = m.cache.Set(ctx, key, raw, m.policy.EffectiveTTL(0))
	}
	return result, nil
}
