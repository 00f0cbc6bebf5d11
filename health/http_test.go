package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want OK", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		wantCode int
		wantBody string
	}{
		{"healthy", Healthy("ok"), http.StatusOK, "OK"},
		{"degraded still ready", Degraded("auth unreachable"), http.StatusOK, "DEGRADED"},
		{"unhealthy", Unhealthy("memstore unreachable", nil), http.StatusServiceUnavailable, "UNHEALTHY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			agg.Register("dep", NewCheckerFunc("dep", func(ctx context.Context) Result {
				return tt.result
			}))

			rec := httptest.NewRecorder()
			ReadinessHandler(agg)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestDetailedHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Register("memstore", NewCheckerFunc("memstore", func(ctx context.Context) Result {
		return Healthy("memstore reachable").WithDetails(map[string]any{"entries": 3})
	}))

	rec := httptest.NewRecorder()
	DetailedHandler(agg)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", report.Status)
	}
	if report.Timestamp == "" {
		t.Error("Timestamp should be set")
	}
	check, ok := report.Checks["memstore"]
	if !ok {
		t.Fatal("Checks should contain memstore")
	}
	if check.Status != "healthy" || check.Message != "memstore reachable" {
		t.Errorf("memstore check = %+v", check)
	}
	if check.Details["entries"] != float64(3) {
		t.Errorf("Details[entries] = %v, want 3", check.Details["entries"])
	}
}

func TestDetailedHandlerUnhealthy(t *testing.T) {
	agg := NewAggregator()
	agg.Register("memstore", NewCheckerFunc("memstore", func(ctx context.Context) Result {
		return Unhealthy("memstore unreachable", errors.New("sqlite: unable to open database file"))
	}))

	rec := httptest.NewRecorder()
	DetailedHandler(agg)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Status != "unhealthy" {
		t.Errorf("Status = %q, want unhealthy", report.Status)
	}
	if report.Checks["memstore"].Error == "" {
		t.Error("check should carry the probe error")
	}
}

func TestDetailedHandlerTimedOutCheck(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond})
	agg.Register("stuck", NewCheckerFunc("stuck", func(ctx context.Context) Result {
		time.Sleep(200 * time.Millisecond)
		return Healthy("too late")
	}))

	rec := httptest.NewRecorder()
	DetailedHandler(agg)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Status != "unhealthy" {
		t.Errorf("Status = %q, want unhealthy", report.Status)
	}
}

func TestMount(t *testing.T) {
	agg := NewAggregator()
	agg.Register("memstore", NewCheckerFunc("memstore", func(ctx context.Context) Result {
		return Healthy("memstore reachable")
	}))

	router := chi.NewRouter()
	Mount(router, agg)

	for _, path := range []string{"/healthz", "/readyz", "/health"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}
