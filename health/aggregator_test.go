package health

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func healthyChecker(name string) Checker {
	return NewCheckerFunc(name, func(ctx context.Context) Result {
		return Healthy(name + " ok")
	})
}

func TestNewAggregatorDefaults(t *testing.T) {
	agg := NewAggregator()

	if agg.config.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", agg.config.Timeout)
	}
	if !agg.config.Parallel {
		t.Error("Parallel should default to true")
	}

	agg = NewAggregator(AggregatorConfig{Timeout: -1})
	if agg.config.Timeout != 10*time.Second {
		t.Errorf("non-positive Timeout should default to 10s, got %v", agg.config.Timeout)
	}
}

func TestNewAggregatorConfig(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 2 * time.Second, Parallel: false})

	if agg.config.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", agg.config.Timeout)
	}
	if agg.config.Parallel {
		t.Error("Parallel should be false")
	}
}

func TestAggregatorRegisterOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Register("memstore", healthyChecker("memstore"))
	agg.Register("auth", healthyChecker("auth"))
	agg.Register("uptime", healthyChecker("uptime"))

	names := agg.CheckerNames()
	want := []string{"memstore", "auth", "uptime"}
	if len(names) != len(want) {
		t.Fatalf("CheckerNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("CheckerNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestAggregatorRegisterReplaces(t *testing.T) {
	agg := NewAggregator()
	agg.Register("memstore", NewCheckerFunc("memstore", func(ctx context.Context) Result {
		return Healthy("first")
	}))
	agg.Register("memstore", NewCheckerFunc("memstore", func(ctx context.Context) Result {
		return Healthy("second")
	}))

	if names := agg.CheckerNames(); len(names) != 1 {
		t.Fatalf("CheckerNames() = %v, want one entry", names)
	}

	result, err := agg.Check(context.Background(), "memstore")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Message != "second" {
		t.Errorf("Message = %q, want the replacement checker's result", result.Message)
	}
}

func TestAggregatorUnregister(t *testing.T) {
	agg := NewAggregator()
	agg.Register("memstore", healthyChecker("memstore"))
	agg.Register("auth", healthyChecker("auth"))
	agg.Unregister("memstore")

	names := agg.CheckerNames()
	if len(names) != 1 || names[0] != "auth" {
		t.Errorf("CheckerNames() = %v, want [auth]", names)
	}
}

func TestAggregatorCheck(t *testing.T) {
	agg := NewAggregator()
	agg.Register("memstore", healthyChecker("memstore"))

	result, err := agg.Check(context.Background(), "memstore")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy", result.Status)
	}
	if result.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestAggregatorCheckUnknownName(t *testing.T) {
	agg := NewAggregator()

	_, err := agg.Check(context.Background(), "billing")
	if !errors.Is(err, ErrCheckerNotFound) {
		t.Fatalf("Check() error = %v, want ErrCheckerNotFound", err)
	}
	if !strings.Contains(err.Error(), "billing") {
		t.Errorf("error %q should name the missing checker", err)
	}
}

func TestAggregatorCheckAll(t *testing.T) {
	agg := NewAggregator()
	agg.Register("memstore", healthyChecker("memstore"))
	agg.Register("auth", NewCheckerFunc("auth", func(ctx context.Context) Result {
		return Degraded("auth unreachable")
	}))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("CheckAll() returned %d results, want 2", len(results))
	}
	if results["memstore"].Status != StatusHealthy {
		t.Errorf("memstore = %v, want StatusHealthy", results["memstore"].Status)
	}
	if results["auth"].Status != StatusDegraded {
		t.Errorf("auth = %v, want StatusDegraded", results["auth"].Status)
	}
}

func TestAggregatorCheckAllEmpty(t *testing.T) {
	agg := NewAggregator()

	if results := agg.CheckAll(context.Background()); len(results) != 0 {
		t.Errorf("CheckAll() = %v, want empty", results)
	}
}

func TestAggregatorCheckAllSerial(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Parallel: false})
	agg.Register("memstore", healthyChecker("memstore"))
	agg.Register("auth", healthyChecker("auth"))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("CheckAll() returned %d results, want 2", len(results))
	}
	for name, result := range results {
		if result.Status != StatusHealthy {
			t.Errorf("%s = %v, want StatusHealthy", name, result.Status)
		}
	}
}

func TestAggregatorCheckAllTimeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond})
	agg.Register("stuck", NewCheckerFunc("stuck", func(ctx context.Context) Result {
		time.Sleep(200 * time.Millisecond)
		return Healthy("too late")
	}))

	results := agg.CheckAll(context.Background())

	stuck := results["stuck"]
	if stuck.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want StatusUnhealthy", stuck.Status)
	}
	if !errors.Is(stuck.Error, ErrCheckTimeout) {
		t.Errorf("Error = %v, want ErrCheckTimeout", stuck.Error)
	}
	if stuck.Message != "check timed out" {
		t.Errorf("Message = %q", stuck.Message)
	}
}

func TestAggregatorOverallStatus(t *testing.T) {
	agg := NewAggregator()

	tests := []struct {
		name    string
		results map[string]Result
		want    Status
	}{
		{"empty", map[string]Result{}, StatusHealthy},
		{"all healthy", map[string]Result{
			"memstore": Healthy("ok"),
			"auth":     Healthy("ok"),
		}, StatusHealthy},
		{"degraded wins over healthy", map[string]Result{
			"memstore": Healthy("ok"),
			"auth":     Degraded("auth unreachable"),
		}, StatusDegraded},
		{"unhealthy wins over degraded", map[string]Result{
			"memstore": Unhealthy("memstore unreachable", nil),
			"auth":     Degraded("auth unreachable"),
		}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := agg.OverallStatus(tt.results); got != tt.want {
				t.Errorf("OverallStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregatorAsChecker(t *testing.T) {
	agg := NewAggregator()
	agg.Register("memstore", healthyChecker("memstore"))

	checker := agg.Checker()
	if checker.Name() != "aggregate" {
		t.Errorf("Name() = %q, want %q", checker.Name(), "aggregate")
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy", result.Status)
	}
	if result.Message != "all checks passed" {
		t.Errorf("Message = %q", result.Message)
	}
	if _, ok := result.Details["memstore"]; !ok {
		t.Error("Details should carry the memstore sub-result")
	}
}

func TestAggregatorAsCheckerWorstWins(t *testing.T) {
	agg := NewAggregator()
	agg.Register("memstore", NewCheckerFunc("memstore", func(ctx context.Context) Result {
		return Unhealthy("memstore unreachable", errors.New("sqlite: unable to open database file"))
	}))
	agg.Register("auth", healthyChecker("auth"))

	result := agg.Checker().Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want StatusUnhealthy", result.Status)
	}
	if result.Message != "some checks failed" {
		t.Errorf("Message = %q", result.Message)
	}
}
