package cache

import "time"

// Policy configures which results are cached and for how long.
type Policy struct {
	// DefaultTTL is the TTL applied when a tool does not request one.
	// Zero disables caching entirely.
	DefaultTTL time.Duration

	// MaxTTL caps requested TTLs. Zero means no cap.
	MaxTTL time.Duration

	// CacheMutating permits caching results of mutating tools. Off by
	// default: a mutating invocation must reach its handler every time.
	CacheMutating bool
}

// DefaultPolicy caches read-only results for 5 minutes, capped at 1 hour.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     time.Hour,
	}
}

// NoCachePolicy disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache reports whether this policy caches anything at all.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// EffectiveTTL resolves the TTL to store with, applying the default and
// clamping to MaxTTL.
func (p Policy) EffectiveTTL(requested time.Duration) time.Duration {
	ttl := requested
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}
