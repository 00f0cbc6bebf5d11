package auth

import "fmt"

// Authentication modes.
const (
	ModeNone      = "none"
	ModeDelegated = "delegated"
)

// NewGate constructs the gate for the given mode. Mode none needs no
// further configuration; mode delegated takes the introspection config.
func NewGate(mode string, cfg IntrospectionConfig) (Gate, error) {
	switch mode {
	case ModeNone:
		return AllowAllGate{}, nil
	case ModeDelegated:
		return NewIntrospectionGate(cfg)
	default:
		return nil, fmt.Errorf("auth: unknown mode %q", mode)
	}
}
