package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/toolgate/resilience"
)

// IntrospectionPath is the token introspection route on the authorization
// server.
const IntrospectionPath = "/api/auth/introspect"

// IntrospectionEndpoint builds the full introspection URL from the
// authorization server base URL.
func IntrospectionEndpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + IntrospectionPath
}

// IntrospectionConfig configures the delegated gate.
type IntrospectionConfig struct {
	// Endpoint is the full URL of the introspection endpoint.
	Endpoint string

	// ClientID identifies the gateway to the authorization server.
	// Empty means the server accepts unauthenticated introspection.
	ClientID string

	// ClientSecret authenticates the gateway. Never logged.
	ClientSecret string

	// ClientAuthMethod selects how the credentials are presented.
	// Options: client_secret_basic (default), client_secret_post,
	// client_secret_jwt.
	ClientAuthMethod string

	// Timeout bounds one introspection exchange. Default: 5 seconds.
	Timeout time.Duration

	// CacheSize bounds the verdict cache. Default: 1024 entries.
	CacheSize int

	// CacheTTL is how long a positive verdict may be reused. A token
	// expiring sooner caps its own entry. Default: 5 minutes.
	CacheTTL time.Duration

	// PrincipalClaim names the claim holding the caller's identifier.
	// Default: "sub", with username and user_id as fallbacks.
	PrincipalClaim string

	// ScopeClaim names the claim holding granted scopes as a
	// space-separated string. Default: "scope".
	ScopeClaim string

	// TenantClaim names the claim holding the caller's tenant. Empty
	// means tenants are not extracted.
	TenantClaim string

	// RolesClaim names the claim holding the caller's roles as a JSON
	// array of strings. Empty means roles are not extracted.
	RolesClaim string

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client

	// Breaker, when set, short-circuits introspection while the
	// authorization server is failing. A rejected call denies with
	// ReasonServiceUnavailable without waiting out the timeout.
	Breaker *resilience.CircuitBreaker
}

// IntrospectionGate is the delegated-mode gate. Every unknown token is
// introspected against the authorization server; positive verdicts are
// cached by token hash in a bounded LRU.
type IntrospectionGate struct {
	cfg        IntrospectionConfig
	httpClient *http.Client
	verdicts   *verdictCache
}

// NewIntrospectionGate builds the gate, applying defaults for unset
// fields. The endpoint is required.
func NewIntrospectionGate(cfg IntrospectionConfig) (*IntrospectionGate, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("auth: introspection endpoint is required")
	}
	if cfg.ClientAuthMethod == "" {
		cfg.ClientAuthMethod = ClientAuthBasic
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.PrincipalClaim == "" {
		cfg.PrincipalClaim = "sub"
	}
	if cfg.ScopeClaim == "" {
		cfg.ScopeClaim = "scope"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &IntrospectionGate{
		cfg:        cfg,
		httpClient: httpClient,
		verdicts:   newVerdictCache(cfg.CacheSize, cfg.CacheTTL),
	}, nil
}

// Check extracts the bearer token, consults the verdict cache, and falls
// back to introspection. Denial reasons:
//   - no usable token: ReasonMissingCredential
//   - server rejected the token: ReasonInvalidCredential
//   - server unreachable, timed out, or answered garbage:
//     ReasonServiceUnavailable
func (g *IntrospectionGate) Check(ctx context.Context, headers http.Header) Decision {
	token, err := ExtractBearer(headers)
	if err != nil {
		return Deny(ReasonMissingCredential)
	}

	key := hashToken(token)
	if identity, ok := g.verdicts.get(key); ok {
		return Allow(identity)
	}

	identity, err := g.introspect(ctx, token)
	switch {
	case err == nil:
		g.verdicts.put(key, identity, g.cfg.CacheTTL)
		return Allow(identity)
	case errors.Is(err, ErrTokenInactive):
		return Deny(ReasonInvalidCredential)
	default:
		return Deny(ReasonServiceUnavailable)
	}
}

// CachedVerdicts reports the number of live cache entries.
func (g *IntrospectionGate) CachedVerdicts() int {
	return g.verdicts.len()
}

// Ping checks reachability of the authorization server without spending a
// token. Used by the health subsystem.
func (g *IntrospectionGate) Ping(ctx context.Context) error {
	u, err := url.Parse(g.cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	base := u.Scheme + "://" + u.Host

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	_ = resp.Body.Close()
	return nil
}

func (g *IntrospectionGate) introspect(ctx context.Context, token string) (*Identity, error) {
	if g.cfg.Breaker == nil {
		return g.doIntrospect(ctx, token)
	}

	// An inactive token is a definitive answer from a healthy server, so
	// it must not count as a breaker failure.
	var identity *Identity
	var inactive bool
	err := g.cfg.Breaker.Execute(ctx, func(ctx context.Context) error {
		id, err := g.doIntrospect(ctx, token)
		if errors.Is(err, ErrTokenInactive) {
			inactive = true
			return nil
		}
		if err != nil {
			return err
		}
		identity = id
		return nil
	})
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	case err != nil:
		return nil, err
	case inactive:
		return nil, ErrTokenInactive
	}
	return identity, nil
}

func (g *IntrospectionGate) doIntrospect(ctx context.Context, token string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	form := url.Values{}
	form.Set("token", token)
	if err := g.extendFormAuth(form); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntrospectionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntrospectionFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	g.applyHeaderAuth(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var claims map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrServiceUnavailable, err)
	}

	active, _ := claims["active"].(bool)
	if !active {
		return nil, ErrTokenInactive
	}

	return g.buildIdentity(claims), nil
}

func (g *IntrospectionGate) buildIdentity(claims map[string]any) *Identity {
	identity := &Identity{
		Method: MethodIntrospection,
		Claims: claims,
	}

	for _, claim := range []string{g.cfg.PrincipalClaim, "username", "user_id", "client_id"} {
		if principal, ok := claims[claim].(string); ok && principal != "" {
			identity.Principal = principal
			break
		}
	}
	if clientID, ok := claims["client_id"].(string); ok {
		identity.ClientID = clientID
	}
	if g.cfg.TenantClaim != "" {
		if tenant, ok := claims[g.cfg.TenantClaim].(string); ok {
			identity.TenantID = tenant
		}
	}
	if g.cfg.RolesClaim != "" {
		if raw, ok := claims[g.cfg.RolesClaim].([]any); ok {
			for _, r := range raw {
				if role, ok := r.(string); ok {
					identity.Roles = append(identity.Roles, role)
				}
			}
		}
	}
	if scope, ok := claims[g.cfg.ScopeClaim].(string); ok && scope != "" {
		identity.Scopes = strings.Fields(scope)
	}
	if exp, ok := claims["exp"].(float64); ok && exp > 0 {
		identity.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if iat, ok := claims["iat"].(float64); ok && iat > 0 {
		identity.IssuedAt = time.Unix(int64(iat), 0)
	}

	return identity
}

var _ Gate = (*IntrospectionGate)(nil)
