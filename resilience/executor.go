package resilience

import (
	"context"
	"time"
)

// Executor layers multiple patterns around one operation. A zero
// executor runs the operation directly; each option adds a layer.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	timeout        *Timeout
}

// ExecutorOption adds a pattern to an Executor.
type ExecutorOption func(*Executor)

// NewExecutor builds an executor from the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker guards the operation with cb.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.circuitBreaker = cb }
}

// WithRetry re-runs the operation per r on failure.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithRateLimiter throttles admission with rl.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.rateLimiter = rl }
}

// WithBulkhead caps concurrency with b.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) { e.bulkhead = b }
}

// WithTimeout bounds each attempt to the given duration.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout}) }
}

// WithTimeoutConfig bounds each attempt with a prebuilt Timeout.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) { e.timeout = t }
}

// Execute runs op through the configured layers, outermost first: rate
// limiter, bulkhead, circuit breaker, retry, timeout. Each retry
// attempt gets a fresh deadline from the innermost timeout, and a
// rate-limited call is rejected before it holds a bulkhead slot or
// counts against the breaker.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	run := op

	if e.timeout != nil {
		inner := run
		run = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}
	if e.retry != nil {
		inner := run
		run = func(ctx context.Context) error {
			return e.retry.Execute(ctx, inner)
		}
	}
	if e.circuitBreaker != nil {
		inner := run
		run = func(ctx context.Context) error {
			return e.circuitBreaker.Execute(ctx, inner)
		}
	}
	if e.bulkhead != nil {
		inner := run
		run = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, inner)
		}
	}
	if e.rateLimiter != nil {
		inner := run
		run = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	return run(ctx)
}
