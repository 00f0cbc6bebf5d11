package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePinger struct {
	err   error
	calls int
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.calls++
	return p.err
}

func TestPingCheckerReachable(t *testing.T) {
	pinger := &fakePinger{}
	checker := NewPingChecker(PingCheckerConfig{Name: "memstore", Pinger: pinger})

	if checker.Name() != "memstore" {
		t.Errorf("Name() = %q, want %q", checker.Name(), "memstore")
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy", result.Status)
	}
	if result.Message != "memstore reachable" {
		t.Errorf("Message = %q", result.Message)
	}
	if pinger.calls != 1 {
		t.Errorf("Ping calls = %d, want 1", pinger.calls)
	}
}

func TestPingCheckerUnreachable(t *testing.T) {
	cause := errors.New("sqlite: unable to open database file")
	checker := NewPingChecker(PingCheckerConfig{Name: "memstore", Pinger: &fakePinger{err: cause}})

	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want StatusUnhealthy", result.Status)
	}
	if result.Message != "memstore unreachable" {
		t.Errorf("Message = %q", result.Message)
	}
	if !errors.Is(result.Error, cause) {
		t.Errorf("Error = %v, want %v", result.Error, cause)
	}
}

func TestPingCheckerSoftDegrades(t *testing.T) {
	cause := errors.New("connection refused")
	checker := NewPingChecker(PingCheckerConfig{Name: "auth", Pinger: &fakePinger{err: cause}, Soft: true})

	result := checker.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("Status = %v, want StatusDegraded", result.Status)
	}
	if result.Message != "auth unreachable" {
		t.Errorf("Message = %q", result.Message)
	}
	if !errors.Is(result.Error, cause) {
		t.Errorf("Error = %v, want %v", result.Error, cause)
	}
}

func TestUptimeChecker(t *testing.T) {
	checker := NewUptimeChecker()

	if checker.Name() != "uptime" {
		t.Errorf("Name() = %q, want %q", checker.Name(), "uptime")
	}

	time.Sleep(10 * time.Millisecond)
	result := checker.Check(context.Background())

	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy", result.Status)
	}
	if _, ok := result.Details["started_at"].(string); !ok {
		t.Error("Details should include started_at")
	}
	if secs, ok := result.Details["uptime_seconds"].(int64); !ok || secs < 0 {
		t.Errorf("uptime_seconds = %v, want a non-negative int64", result.Details["uptime_seconds"])
	}
}
