package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRetryDefaults(t *testing.T) {
	r := NewRetry(RetryConfig{})

	if r.config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", r.config.MaxAttempts)
	}
	if r.config.InitialDelay != 100*time.Millisecond {
		t.Errorf("InitialDelay = %v, want 100ms", r.config.InitialDelay)
	}
	if r.config.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", r.config.MaxDelay)
	}
	if r.config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %v, want 2.0", r.config.Multiplier)
	}
}

func TestRetryFirstAttemptSucceeds(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3})

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	})

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("upstream returned 503")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhaustionWrapsSentinel(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	})

	calls := 0
	cause := errors.New("connection refused")
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return cause
	})

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Errorf("Execute() error = %v, want ErrMaxRetriesExceeded", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Execute() error = %v, want it to wrap the cause", err)
	}
}

func TestRetryNonRetryableReturnsUnwrapped(t *testing.T) {
	permanent := errors.New("place not found")
	r := NewRetry(RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		RetryIf: func(err error) bool {
			return !errors.Is(err, permanent)
		},
	})

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if err != permanent {
		t.Errorf("Execute() error = %v, want the permanent error unchanged", err)
	}
	if errors.Is(err, ErrMaxRetriesExceeded) {
		t.Error("a non-retryable error must not wrap ErrMaxRetriesExceeded")
	}
}

func TestRetryContextCanceledDuringBackoff(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxAttempts:  10,
		InitialDelay: 100 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := r.Execute(ctx, func(ctx context.Context) error {
		return errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestRetryOnRetryCallback(t *testing.T) {
	type callback struct {
		attempt int
		delay   time.Duration
	}
	var callbacks []callback

	r := NewRetry(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			callbacks = append(callbacks, callback{attempt, delay})
		},
	})

	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	})

	if len(callbacks) != 2 {
		t.Fatalf("OnRetry calls = %d, want 2", len(callbacks))
	}
	if callbacks[0].attempt != 1 || callbacks[1].attempt != 2 {
		t.Errorf("attempts = %d, %d, want 1, 2", callbacks[0].attempt, callbacks[1].attempt)
	}
}

func TestRetryBackoff(t *testing.T) {
	tests := []struct {
		name    string
		config  RetryConfig
		attempt int
		want    time.Duration
	}{
		{
			name: "exponential doubles per attempt",
			config: RetryConfig{
				InitialDelay: 10 * time.Millisecond,
				Multiplier:   2.0,
				Strategy:     BackoffExponential,
			},
			attempt: 3,
			want:    40 * time.Millisecond,
		},
		{
			name: "linear grows by the initial delay",
			config: RetryConfig{
				InitialDelay: 10 * time.Millisecond,
				Strategy:     BackoffLinear,
			},
			attempt: 3,
			want:    30 * time.Millisecond,
		},
		{
			name: "constant never grows",
			config: RetryConfig{
				InitialDelay: 10 * time.Millisecond,
				Strategy:     BackoffConstant,
			},
			attempt: 7,
			want:    10 * time.Millisecond,
		},
		{
			name: "max delay caps the curve",
			config: RetryConfig{
				InitialDelay: time.Second,
				MaxDelay:     5 * time.Second,
				Multiplier:   10.0,
				Strategy:     BackoffExponential,
			},
			attempt: 5,
			want:    5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetry(tt.config)
			if got := r.delayFor(tt.attempt); got != tt.want {
				t.Errorf("delayFor(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestRetryJitterBounds(t *testing.T) {
	r := NewRetry(RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		Strategy:     BackoffConstant,
		Jitter:       true,
	})

	for i := 0; i < 200; i++ {
		d := r.delayFor(1)
		if d < 100*time.Millisecond || d >= 125*time.Millisecond {
			t.Fatalf("delayFor(1) = %v, want within [100ms, 125ms)", d)
		}
	}
}

func TestRetryConfigCopy(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 5})
	if got := r.Config().MaxAttempts; got != 5 {
		t.Errorf("Config().MaxAttempts = %d, want 5", got)
	}
}
