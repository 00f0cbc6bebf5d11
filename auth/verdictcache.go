package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// cachedVerdict is one positive introspection outcome. Negative outcomes
// (inactive tokens, unreachable server) are never cached.
type cachedVerdict struct {
	identity  *Identity
	expiresAt time.Time
}

// verdictCache is the bounded cache of positive verdicts, keyed by token
// hash. Capacity is enforced by LRU eviction and every entry carries the
// cache-wide TTL; entries whose token expires sooner than the TTL are
// additionally rejected on read so an expired verdict is never served.
type verdictCache struct {
	lru *expirable.LRU[string, cachedVerdict]
}

func newVerdictCache(size int, ttl time.Duration) *verdictCache {
	return &verdictCache{lru: expirable.NewLRU[string, cachedVerdict](size, nil, ttl)}
}

func (c *verdictCache) get(key string) (*Identity, bool) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return entry.identity, true
}

func (c *verdictCache) put(key string, id *Identity, ttl time.Duration) {
	expiresAt := time.Now().Add(ttl)
	if !id.ExpiresAt.IsZero() && id.ExpiresAt.Before(expiresAt) {
		expiresAt = id.ExpiresAt
	}
	c.lru.Add(key, cachedVerdict{identity: id, expiresAt: expiresAt})
}

func (c *verdictCache) len() int {
	return c.lru.Len()
}

// hashToken derives the cache key. Only the hash ever leaves this
// function; raw tokens are never stored or logged.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
