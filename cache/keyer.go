package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Keyer derives deterministic cache keys from tool invocations.
//
// Contract:
// - Determinism: equal arguments must produce equal keys regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a cache key from a tool name and its arguments.
	Key(tool string, args any) (string, error)
}

// DefaultKeyer derives SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key derives a deterministic cache key of the form tool:<name>:<hash>,
// where hash is the first 16 hex characters of SHA-256 over the canonical
// JSON form of the arguments.
func (k *DefaultKeyer) Key(tool string, args any) (string, error) {
	canonical, err := canonicalJSON(args)
	if err != nil {
		return "", fmt.Errorf("cache: canonicalize arguments: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("tool:%s:%s", tool, hex.EncodeToString(sum[:8])), nil
}

// canonicalJSON encodes v as JSON with object keys in sorted order so that
// equal values always serialize to the same bytes.
func canonicalJSON(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, key := range slices.Sorted(maps.Keys(val)) {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := canonicalJSON(val[key])
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			vb, err := canonicalJSON(item)
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return json.Marshal(v)
	}
}

var _ Keyer = (*DefaultKeyer)(nil)
