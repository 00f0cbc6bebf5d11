package auth

import (
	"fmt"
	"testing"
	"time"
)

func TestVerdictCacheBound(t *testing.T) {
	c := newVerdictCache(4, time.Minute)

	for i := 0; i < 10; i++ {
		c.put(fmt.Sprintf("key-%d", i), &Identity{Principal: fmt.Sprintf("u%d", i)}, time.Minute)
	}

	if got := c.len(); got > 4 {
		t.Errorf("len() = %d, want at most 4 (LRU bound)", got)
	}

	// The most recent entries survive; the oldest were evicted.
	if _, ok := c.get("key-9"); !ok {
		t.Error("most recent entry evicted")
	}
	if _, ok := c.get("key-0"); ok {
		t.Error("oldest entry survived beyond capacity")
	}
}

func TestVerdictCacheExpiryHonorsTokenExp(t *testing.T) {
	c := newVerdictCache(8, time.Hour)

	id := &Identity{Principal: "u", ExpiresAt: time.Now().Add(40 * time.Millisecond)}
	c.put("short-lived", id, time.Hour)

	if _, ok := c.get("short-lived"); !ok {
		t.Fatal("fresh entry missing")
	}

	time.Sleep(60 * time.Millisecond)
	if _, ok := c.get("short-lived"); ok {
		t.Error("expired verdict was served")
	}
}

func TestVerdictCacheTTL(t *testing.T) {
	c := newVerdictCache(8, time.Hour)

	c.put("entry", &Identity{Principal: "u"}, 40*time.Millisecond)
	if _, ok := c.get("entry"); !ok {
		t.Fatal("fresh entry missing")
	}

	time.Sleep(60 * time.Millisecond)
	if _, ok := c.get("entry"); ok {
		t.Error("entry served past its TTL")
	}
}

func TestHashTokenStableAndOpaque(t *testing.T) {
	a := hashToken("my-secret-token")
	b := hashToken("my-secret-token")
	other := hashToken("different-token")

	if a != b {
		t.Error("hashToken not deterministic")
	}
	if a == other {
		t.Error("distinct tokens collided")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
	if a == "my-secret-token" {
		t.Error("hashToken returned the raw token")
	}
}
