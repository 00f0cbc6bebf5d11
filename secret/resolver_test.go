package secret

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubProvider struct {
	name   string
	values map[string]string
	err    error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Resolve(_ context.Context, ref string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.values[ref], nil
}

func (s *stubProvider) Close() error { return nil }

func TestParseRef(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantProvider string
		wantRef      string
		wantOK       bool
	}{
		{"valid", "secretref:env:CLIENT_SECRET", "env", "CLIENT_SECRET", true},
		{"ref with colons", "secretref:vault:kv/data/gateway:field", "vault", "kv/data/gateway:field", true},
		{"no prefix", "env:CLIENT_SECRET", "", "", false},
		{"missing ref", "secretref:env:", "", "", false},
		{"missing provider", "secretref::X", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, ref, ok := ParseRef(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseRef() ok = %v, want %v", ok, tt.wantOK)
			}
			if provider != tt.wantProvider || ref != tt.wantRef {
				t.Errorf("ParseRef() = %q, %q, want %q, %q", provider, ref, tt.wantProvider, tt.wantRef)
			}
		})
	}
}

func TestResolverWholeValueRef(t *testing.T) {
	r := NewResolver(&stubProvider{name: "stub", values: map[string]string{"alpha": "one"}})

	got, err := r.Resolve(context.Background(), "secretref:stub:alpha")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "one" {
		t.Errorf("Resolve() = %q, want %q", got, "one")
	}
}

func TestResolverInlineRef(t *testing.T) {
	r := NewResolver(&stubProvider{name: "stub", values: map[string]string{"token": "abc123"}})

	got, err := r.Resolve(context.Background(), "Bearer secretref:stub:token")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "Bearer abc123" {
		t.Errorf("Resolve() = %q, want %q", got, "Bearer abc123")
	}
}

func TestResolverEnvProvider(t *testing.T) {
	t.Setenv("TOOLGATE_TEST_SECRET", "hunter2")

	r := NewResolver()
	got, err := r.Resolve(context.Background(), "secretref:env:TOOLGATE_TEST_SECRET")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "hunter2" {
		t.Errorf("Resolve() = %q, want %q", got, "hunter2")
	}
}

func TestResolverUnknownProvider(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve(context.Background(), "secretref:vault:whatever")
	if err == nil {
		t.Fatal("expected error for unregistered provider")
	}
	if !strings.Contains(err.Error(), "vault") {
		t.Errorf("error %q does not name the provider", err)
	}
}

func TestResolverEmptyValueRejected(t *testing.T) {
	r := NewResolver(&stubProvider{name: "stub"})

	_, err := r.Resolve(context.Background(), "secretref:stub:nothing")
	if err == nil {
		t.Fatal("expected error for empty resolved value")
	}
}

func TestResolverProviderErrorWrapped(t *testing.T) {
	sentinel := errors.New("backend down")
	r := NewResolver(&stubProvider{name: "stub", err: sentinel})

	_, err := r.Resolve(context.Background(), "secretref:stub:alpha")
	if !errors.Is(err, sentinel) {
		t.Errorf("Resolve() error = %v, want wrapped %v", err, sentinel)
	}
}

func TestResolverExpandsEnvBeforeRefs(t *testing.T) {
	t.Setenv("REF_NAME", "alpha")
	r := NewResolver(&stubProvider{name: "stub", values: map[string]string{"alpha": "one"}})

	got, err := r.Resolve(context.Background(), "secretref:stub:${REF_NAME}")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "one" {
		t.Errorf("Resolve() = %q, want %q", got, "one")
	}
}

func TestResolverPlainValuePassesThrough(t *testing.T) {
	r := NewResolver()

	got, err := r.Resolve(context.Background(), "no secrets here")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "no secrets here" {
		t.Errorf("Resolve() = %q", got)
	}
}
