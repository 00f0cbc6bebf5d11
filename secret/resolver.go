package secret

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const refPrefix = "secretref:"

// Resolver resolves environment references and secretrefs in config values.
// The zero value has no providers; NewResolver registers the env provider.
type Resolver struct {
	providers map[string]Provider
}

// NewResolver returns a resolver with the env provider plus any extras.
func NewResolver(extra ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider)}
	r.Register(EnvProvider{})
	for _, p := range extra {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a provider by name.
func (r *Resolver) Register(p Provider) {
	if p == nil {
		return
	}
	if r.providers == nil {
		r.providers = make(map[string]Provider)
	}
	r.providers[p.Name()] = p
}

// Resolve expands ${VAR} references strictly, then resolves any
// secretref:<provider>:<ref> occurrences, whole-value or inline.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}
	if provider, ref, ok := ParseRef(expanded); ok {
		return r.resolveRef(ctx, provider, ref)
	}
	return r.resolveInline(ctx, expanded)
}

// ParseRef splits a whole-value reference of the form
// secretref:<provider>:<ref>.
func ParseRef(value string) (provider, ref string, ok bool) {
	if !strings.HasPrefix(value, refPrefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(value, refPrefix)
	provider, ref, found := strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}

func (r *Resolver) resolveRef(ctx context.Context, name, ref string) (string, error) {
	p, ok := r.providers[name]
	if !ok {
		return "", fmt.Errorf("secret provider %q is not registered", name)
	}
	resolved, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("resolve secretref:%s:%s: %w", name, ref, err)
	}
	if resolved == "" {
		return "", fmt.Errorf("secret provider %q returned empty value", name)
	}
	return resolved, nil
}

var inlineRefPattern = regexp.MustCompile(`secretref:([^:\s]+):([^\s]+)`)

// resolveInline replaces embedded refs from end to start so earlier match
// indexes stay valid as the string shrinks or grows.
func (r *Resolver) resolveInline(ctx context.Context, value string) (string, error) {
	matches := inlineRefPattern.FindAllStringSubmatchIndex(value, -1)
	out := value
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		resolved, err := r.resolveRef(ctx, out[m[2]:m[3]], out[m[4]:m[5]])
		if err != nil {
			return "", err
		}
		out = out[:m[0]] + resolved + out[m[1]:]
	}
	return out, nil
}
