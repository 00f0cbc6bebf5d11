package resilience

import "errors"

var (
	// ErrCircuitOpen rejects calls while a CircuitBreaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrMaxRetriesExceeded wraps the final error once Retry has
	// exhausted its attempts.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	// ErrRateLimitExceeded rejects calls that exceed a RateLimiter's
	// token budget.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull rejects calls when a Bulkhead has no free slot.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout replaces context.DeadlineExceeded when a Timeout
	// expires.
	ErrTimeout = errors.New("resilience: operation timed out")
)
