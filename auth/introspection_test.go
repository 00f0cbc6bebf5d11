package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonwraymond/toolgate/resilience"
)

func bearerHeaders(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

// fakeAuthServer answers introspection requests with the given claims and
// counts how often it is hit.
func fakeAuthServer(t *testing.T, claims map[string]any, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("introspection method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("token") == "" {
			t.Error("introspection request carries no token field")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(claims)
	}))
}

func TestIntrospectionGateAllowsActiveToken(t *testing.T) {
	var calls atomic.Int64
	srv := fakeAuthServer(t, map[string]any{
		"active":    true,
		"sub":       "user-1",
		"scope":     "tools:read tools:write",
		"client_id": "cli-app",
		"exp":       float64(time.Now().Add(time.Hour).Unix()),
	}, &calls)
	defer srv.Close()

	gate, err := NewIntrospectionGate(IntrospectionConfig{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("NewIntrospectionGate() error = %v", err)
	}

	decision := gate.Check(context.Background(), bearerHeaders("tok-abc"))
	if !decision.Allowed {
		t.Fatalf("Check() denied with reason %q", decision.Reason)
	}
	if decision.Identity.Principal != "user-1" {
		t.Errorf("Principal = %q, want user-1", decision.Identity.Principal)
	}
	if !decision.Identity.HasScope("tools:write") {
		t.Errorf("Scopes = %v, want tools:write present", decision.Identity.Scopes)
	}
	if decision.Identity.Method != MethodIntrospection {
		t.Errorf("Method = %q", decision.Identity.Method)
	}
	if decision.Identity.ClientID != "cli-app" {
		t.Errorf("ClientID = %q", decision.Identity.ClientID)
	}
}

func TestIntrospectionGateTenantAndRoleClaims(t *testing.T) {
	var calls atomic.Int64
	srv := fakeAuthServer(t, map[string]any{
		"active": true,
		"sub":    "user-1",
		"org":    "acme",
		"groups": []any{"operator", "admin", 42},
	}, &calls)
	defer srv.Close()

	gate, err := NewIntrospectionGate(IntrospectionConfig{
		Endpoint:    srv.URL,
		TenantClaim: "org",
		RolesClaim:  "groups",
	})
	if err != nil {
		t.Fatalf("NewIntrospectionGate() error = %v", err)
	}

	decision := gate.Check(context.Background(), bearerHeaders("tok-abc"))
	if !decision.Allowed {
		t.Fatalf("Check() denied with reason %q", decision.Reason)
	}
	if decision.Identity.TenantID != "acme" {
		t.Errorf("TenantID = %q, want acme", decision.Identity.TenantID)
	}
	if !decision.Identity.HasRole("admin") {
		t.Errorf("Roles = %v, want admin present", decision.Identity.Roles)
	}
	if len(decision.Identity.Roles) != 2 {
		t.Errorf("Roles = %v, want the non-string entry skipped", decision.Identity.Roles)
	}

	// Unconfigured claim names leave the fields empty.
	plain, err := NewIntrospectionGate(IntrospectionConfig{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("NewIntrospectionGate() error = %v", err)
	}
	decision = plain.Check(context.Background(), bearerHeaders("tok-other"))
	if !decision.Allowed {
		t.Fatalf("Check() denied with reason %q", decision.Reason)
	}
	if decision.Identity.TenantID != "" || len(decision.Identity.Roles) != 0 {
		t.Errorf("TenantID = %q, Roles = %v, want both empty",
			decision.Identity.TenantID, decision.Identity.Roles)
	}
}

func TestIntrospectionGateCachesPositiveVerdict(t *testing.T) {
	var calls atomic.Int64
	srv := fakeAuthServer(t, map[string]any{"active": true, "sub": "user-1"}, &calls)
	defer srv.Close()

	gate, err := NewIntrospectionGate(IntrospectionConfig{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("NewIntrospectionGate() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if d := gate.Check(context.Background(), bearerHeaders("tok-abc")); !d.Allowed {
			t.Fatalf("Check() #%d denied: %q", i, d.Reason)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("introspection calls = %d, want 1 (cache hit)", got)
	}
	if gate.CachedVerdicts() != 1 {
		t.Errorf("CachedVerdicts() = %d, want 1", gate.CachedVerdicts())
	}
}

func TestIntrospectionGateDistinctTokensIntrospectedSeparately(t *testing.T) {
	var calls atomic.Int64
	srv := fakeAuthServer(t, map[string]any{"active": true, "sub": "user-1"}, &calls)
	defer srv.Close()

	gate, _ := NewIntrospectionGate(IntrospectionConfig{Endpoint: srv.URL})

	gate.Check(context.Background(), bearerHeaders("tok-a"))
	gate.Check(context.Background(), bearerHeaders("tok-b"))
	if got := calls.Load(); got != 2 {
		t.Errorf("introspection calls = %d, want 2", got)
	}
}

func TestIntrospectionGateDeniesInactiveTokenWithoutCaching(t *testing.T) {
	var calls atomic.Int64
	srv := fakeAuthServer(t, map[string]any{"active": false}, &calls)
	defer srv.Close()

	gate, err := NewIntrospectionGate(IntrospectionConfig{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("NewIntrospectionGate() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		decision := gate.Check(context.Background(), bearerHeaders("revoked-tok"))
		if decision.Allowed {
			t.Fatal("Check() allowed an inactive token")
		}
		if decision.Reason != ReasonInvalidCredential {
			t.Errorf("Reason = %q, want %q", decision.Reason, ReasonInvalidCredential)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("introspection calls = %d, want 2 (negative verdicts not cached)", got)
	}
	if gate.CachedVerdicts() != 0 {
		t.Errorf("CachedVerdicts() = %d, want 0", gate.CachedVerdicts())
	}
}

func TestIntrospectionGateMissingCredential(t *testing.T) {
	var calls atomic.Int64
	srv := fakeAuthServer(t, map[string]any{"active": true}, &calls)
	defer srv.Close()

	gate, _ := NewIntrospectionGate(IntrospectionConfig{Endpoint: srv.URL})

	tests := []struct {
		name    string
		headers http.Header
	}{
		{"no headers", http.Header{}},
		{"empty authorization", http.Header{"Authorization": {""}}},
		{"wrong scheme", http.Header{"Authorization": {"Basic dXNlcjpwYXNz"}}},
		{"bare bearer", http.Header{"Authorization": {"Bearer"}}},
		{"blank token", http.Header{"Authorization": {"Bearer   "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := gate.Check(context.Background(), tt.headers)
			if decision.Allowed {
				t.Fatal("Check() allowed without credential")
			}
			if decision.Reason != ReasonMissingCredential {
				t.Errorf("Reason = %q, want %q", decision.Reason, ReasonMissingCredential)
			}
		})
	}
	if calls.Load() != 0 {
		t.Errorf("introspection calls = %d, want 0 for missing credentials", calls.Load())
	}
}

func TestIntrospectionGateUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	gate, _ := NewIntrospectionGate(IntrospectionConfig{Endpoint: endpoint})

	decision := gate.Check(context.Background(), bearerHeaders("tok-abc"))
	if decision.Allowed {
		t.Fatal("Check() allowed with auth server down")
	}
	if decision.Reason != ReasonServiceUnavailable {
		t.Errorf("Reason = %q, want %q", decision.Reason, ReasonServiceUnavailable)
	}
	if gate.CachedVerdicts() != 0 {
		t.Error("unavailable verdict was cached")
	}
}

func TestIntrospectionGateTimeoutIsUnavailableNotInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{"active": true})
	}))
	defer srv.Close()

	gate, _ := NewIntrospectionGate(IntrospectionConfig{
		Endpoint: srv.URL,
		Timeout:  30 * time.Millisecond,
	})

	decision := gate.Check(context.Background(), bearerHeaders("tok-abc"))
	if decision.Allowed {
		t.Fatal("Check() allowed after timeout")
	}
	if decision.Reason != ReasonServiceUnavailable {
		t.Errorf("Reason = %q, want %q (never %q)", decision.Reason, ReasonServiceUnavailable, ReasonInvalidCredential)
	}
}

func TestIntrospectionGateErrorStatusIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	gate, _ := NewIntrospectionGate(IntrospectionConfig{Endpoint: srv.URL})

	decision := gate.Check(context.Background(), bearerHeaders("tok-abc"))
	if decision.Allowed || decision.Reason != ReasonServiceUnavailable {
		t.Errorf("decision = %+v, want unavailable denial", decision)
	}
}

func TestIntrospectionGateExpiredVerdictReIntrospected(t *testing.T) {
	var calls atomic.Int64
	srv := fakeAuthServer(t, map[string]any{
		"active": true,
		"sub":    "user-1",
		"exp":    float64(time.Now().Add(time.Second).Unix()),
	}, &calls)
	defer srv.Close()

	gate, _ := NewIntrospectionGate(IntrospectionConfig{Endpoint: srv.URL})

	gate.Check(context.Background(), bearerHeaders("tok-abc"))

	// Wait past the token expiry; the cached verdict must not be served.
	time.Sleep(1200 * time.Millisecond)

	gate.Check(context.Background(), bearerHeaders("tok-abc"))
	if got := calls.Load(); got != 2 {
		t.Errorf("introspection calls = %d, want 2 after verdict expiry", got)
	}
}

func TestIntrospectionGateClientSecretBasic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "gateway" || pass != "s3cr3t" {
			t.Errorf("basic auth = %q/%q ok=%v", user, pass, ok)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"active": true, "sub": "u"})
	}))
	defer srv.Close()

	gate, _ := NewIntrospectionGate(IntrospectionConfig{
		Endpoint:     srv.URL,
		ClientID:     "gateway",
		ClientSecret: "s3cr3t",
	})

	if d := gate.Check(context.Background(), bearerHeaders("tok")); !d.Allowed {
		t.Fatalf("Check() denied: %q", d.Reason)
	}
}

func TestIntrospectionGateClientSecretPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("client_id") != "gateway" || r.PostForm.Get("client_secret") != "s3cr3t" {
			t.Errorf("form credentials = %q/%q", r.PostForm.Get("client_id"), r.PostForm.Get("client_secret"))
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("post method must not set an Authorization header")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"active": true, "sub": "u"})
	}))
	defer srv.Close()

	gate, _ := NewIntrospectionGate(IntrospectionConfig{
		Endpoint:         srv.URL,
		ClientID:         "gateway",
		ClientSecret:     "s3cr3t",
		ClientAuthMethod: ClientAuthPost,
	})

	if d := gate.Check(context.Background(), bearerHeaders("tok")); !d.Allowed {
		t.Fatalf("Check() denied: %q", d.Reason)
	}
}

func TestIntrospectionGateClientSecretJWT(t *testing.T) {
	var gotAssertion string
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotAssertion = r.PostForm.Get("client_assertion")
		gotType = r.PostForm.Get("client_assertion_type")
		_ = json.NewEncoder(w).Encode(map[string]any{"active": true, "sub": "u"})
	}))
	defer srv.Close()

	gate, _ := NewIntrospectionGate(IntrospectionConfig{
		Endpoint:         srv.URL,
		ClientID:         "gateway",
		ClientSecret:     "s3cr3t",
		ClientAuthMethod: ClientAuthJWT,
	})

	if d := gate.Check(context.Background(), bearerHeaders("tok")); !d.Allowed {
		t.Fatalf("Check() denied: %q", d.Reason)
	}
	if gotType != clientAssertionType {
		t.Errorf("client_assertion_type = %q", gotType)
	}

	parsed, err := jwt.Parse(gotAssertion, func(tok *jwt.Token) (any, error) {
		return []byte("s3cr3t"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("parse client assertion: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["iss"] != "gateway" || claims["sub"] != "gateway" {
		t.Errorf("assertion iss/sub = %v/%v", claims["iss"], claims["sub"])
	}
	if claims["aud"] != srv.URL {
		t.Errorf("assertion aud = %v, want %s", claims["aud"], srv.URL)
	}
	if claims["jti"] == "" || claims["jti"] == nil {
		t.Error("assertion missing jti")
	}
}

func TestIntrospectionGateBreakerShortCircuits(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	gate, _ := NewIntrospectionGate(IntrospectionConfig{
		Endpoint: srv.URL,
		Breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  1,
			ResetTimeout: time.Minute,
		}),
	})

	first := gate.Check(context.Background(), bearerHeaders("tok"))
	second := gate.Check(context.Background(), bearerHeaders("tok"))

	if first.Reason != ReasonServiceUnavailable || second.Reason != ReasonServiceUnavailable {
		t.Errorf("reasons = %q, %q, want unavailable twice", first.Reason, second.Reason)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("introspection calls = %d, want 1 (breaker open on second)", got)
	}
}

func TestIntrospectionGateBreakerIgnoresInactiveTokens(t *testing.T) {
	var calls atomic.Int64
	srv := fakeAuthServer(t, map[string]any{"active": false}, &calls)
	defer srv.Close()

	gate, _ := NewIntrospectionGate(IntrospectionConfig{
		Endpoint: srv.URL,
		Breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  1,
			ResetTimeout: time.Minute,
		}),
	})

	for i := 0; i < 3; i++ {
		decision := gate.Check(context.Background(), bearerHeaders("revoked"))
		if decision.Reason != ReasonInvalidCredential {
			t.Fatalf("Check() #%d reason = %q, want %q", i, decision.Reason, ReasonInvalidCredential)
		}
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("introspection calls = %d, want 3 (inactive answers never open the breaker)", got)
	}
}

func TestIntrospectionGatePrincipalFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]any
		want   string
	}{
		{"sub preferred", map[string]any{"active": true, "sub": "s", "username": "n"}, "s"},
		{"username fallback", map[string]any{"active": true, "username": "n", "user_id": "id"}, "n"},
		{"user_id fallback", map[string]any{"active": true, "user_id": "id"}, "id"},
		{"client_id fallback", map[string]any{"active": true, "client_id": "svc"}, "svc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int64
			srv := fakeAuthServer(t, tt.claims, &calls)
			defer srv.Close()

			gate, _ := NewIntrospectionGate(IntrospectionConfig{Endpoint: srv.URL})
			decision := gate.Check(context.Background(), bearerHeaders("tok"))
			if !decision.Allowed {
				t.Fatalf("Check() denied: %q", decision.Reason)
			}
			if decision.Identity.Principal != tt.want {
				t.Errorf("Principal = %q, want %q", decision.Identity.Principal, tt.want)
			}
		})
	}
}

func TestNewIntrospectionGateRequiresEndpoint(t *testing.T) {
	if _, err := NewIntrospectionGate(IntrospectionConfig{}); err == nil {
		t.Fatal("NewIntrospectionGate() accepted empty endpoint")
	}
}

func TestIntrospectionEndpoint(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:9642", "http://localhost:9642/api/auth/introspect"},
		{"http://localhost:9642/", "http://localhost:9642/api/auth/introspect"},
		{"https://auth.example.com/", "https://auth.example.com/api/auth/introspect"},
	}
	for _, tt := range tests {
		if got := IntrospectionEndpoint(tt.base); got != tt.want {
			t.Errorf("IntrospectionEndpoint(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}
