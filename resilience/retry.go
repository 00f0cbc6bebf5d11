package resilience

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy selects how the delay grows between attempts.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by Multiplier each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear grows the delay by InitialDelay each attempt.
	BackoffLinear
	// BackoffConstant keeps the delay fixed at InitialDelay.
	BackoffConstant
)

// RetryConfig configures a Retry.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, the first call
	// included. Default: 3.
	MaxAttempts int

	// InitialDelay is the delay before the first retry. Default: 100ms.
	InitialDelay time.Duration

	// MaxDelay caps the delay between attempts. Default: 30s.
	MaxDelay time.Duration

	// Multiplier scales the delay under BackoffExponential.
	// Default: 2.0.
	Multiplier float64

	// Strategy picks the backoff curve. Default: BackoffExponential.
	Strategy BackoffStrategy

	// Jitter spreads each delay by up to 25% so synchronized callers
	// do not retry in lockstep. Default: false.
	Jitter bool

	// RetryIf decides whether an error is worth another attempt. The
	// default retries every non-nil error. Outbound HTTP callers
	// typically retry timeouts and 5xx responses and give up on 4xx.
	RetryIf func(err error) bool

	// OnRetry is invoked before each wait, with the attempt number
	// that just failed.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry re-runs failed operations with configurable backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry builds a retry policy, applying defaults for unset fields.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}

	return &Retry{config: config}
}

// Execute runs op until it succeeds, RetryIf rejects the error, the
// context ends, or MaxAttempts is reached. Exhaustion wraps the final
// error in ErrMaxRetriesExceeded; a RetryIf rejection returns the error
// unchanged.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		delay := r.delayFor(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetriesExceeded, r.config.MaxAttempts, lastErr)
}

// delayFor computes the wait after the given 1-based attempt.
func (r *Retry) delayFor(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.Strategy {
	case BackoffConstant:
		delay = r.config.InitialDelay
	case BackoffLinear:
		delay = r.config.InitialDelay * time.Duration(attempt)
	case BackoffExponential:
		delay = time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1)))
	}

	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	if r.config.Jitter {
		if quarter := delay / 4; quarter > 0 {
			// #nosec G404 -- timing spread, not a security boundary.
			delay += time.Duration(rand.Int64N(int64(quarter)))
		}
	}
	return delay
}

// Config returns a copy of the effective configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
