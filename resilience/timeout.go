package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeoutConfig configures a Timeout.
type TimeoutConfig struct {
	// Timeout is the maximum duration for one operation. Default: 30s.
	Timeout time.Duration
}

// Timeout bounds how long an operation may run.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout builds a timeout wrapper, applying the default when the
// duration is unset.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Timeout{config: config}
}

// Execute runs op under a deadline. An expired deadline returns
// ErrTimeout; cancellation of the parent context returns its error.
//
// The operation is not forcibly stopped when the deadline passes. It
// keeps running on its own goroutine until it observes ctx.Done, and
// the buffered channel lets it finish without a reader.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

// Config returns the effective configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// ExecuteWithTimeout runs op under a one-off deadline without building
// a Timeout first.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	return NewTimeout(TimeoutConfig{Timeout: timeout}).Execute(ctx, op)
}
