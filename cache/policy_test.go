package cache

import (
	"testing"
	"time"
)

func TestPolicyEffectiveTTL(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		requested time.Duration
		want      time.Duration
	}{
		{
			name:   "no request uses default",
			policy: Policy{DefaultTTL: 5 * time.Minute, MaxTTL: 10 * time.Minute},
			want:   5 * time.Minute,
		},
		{
			name:      "request within cap",
			policy:    Policy{DefaultTTL: 5 * time.Minute, MaxTTL: 10 * time.Minute},
			requested: 7 * time.Minute,
			want:      7 * time.Minute,
		},
		{
			name:      "request clamped to cap",
			policy:    Policy{DefaultTTL: 5 * time.Minute, MaxTTL: 10 * time.Minute},
			requested: 20 * time.Minute,
			want:      10 * time.Minute,
		},
		{
			name:   "default clamped to cap",
			policy: Policy{DefaultTTL: 15 * time.Minute, MaxTTL: 10 * time.Minute},
			want:   10 * time.Minute,
		},
		{
			name:      "no cap leaves request alone",
			policy:    Policy{DefaultTTL: 5 * time.Minute},
			requested: time.Hour,
			want:      time.Hour,
		},
		{
			name:      "negative request falls back to default",
			policy:    Policy{DefaultTTL: 5 * time.Minute, MaxTTL: 10 * time.Minute},
			requested: -time.Minute,
			want:      5 * time.Minute,
		},
		{
			name: "disabled policy yields zero",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.EffectiveTTL(tt.requested); got != tt.want {
				t.Errorf("EffectiveTTL(%v) = %v, want %v", tt.requested, got, tt.want)
			}
		})
	}
}

func TestPolicyShouldCache(t *testing.T) {
	if !DefaultPolicy().ShouldCache() {
		t.Error("DefaultPolicy().ShouldCache() = false")
	}
	if NoCachePolicy().ShouldCache() {
		t.Error("NoCachePolicy().ShouldCache() = true")
	}
	if (Policy{DefaultTTL: -time.Second}).ShouldCache() {
		t.Error("negative DefaultTTL reported as cacheable")
	}
}

func TestDefaultPolicyValues(t *testing.T) {
	p := DefaultPolicy()
	if p.DefaultTTL != 5*time.Minute {
		t.Errorf("DefaultTTL = %v, want 5m", p.DefaultTTL)
	}
	if p.MaxTTL != time.Hour {
		t.Errorf("MaxTTL = %v, want 1h", p.MaxTTL)
	}
	if p.CacheMutating {
		t.Error("CacheMutating = true, want false")
	}
}
