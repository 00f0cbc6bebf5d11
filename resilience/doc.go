// Package resilience provides failure handling for calls that leave the
// gateway process.
//
// Tool handlers call external HTTP APIs, the auth layer calls the
// authorization server, and the transports take traffic from clients the
// gateway does not control. Each of those boundaries is wrapped by one or
// more of the patterns here:
//
//   - CircuitBreaker stops calling a dependency after repeated failures
//     and probes it again after a cooldown. The introspection client runs
//     behind one so an authorization server outage fails fast instead of
//     stalling every request on a timeout.
//
//   - Retry re-runs transient failures with exponential, linear, or
//     constant backoff and optional jitter.
//
//   - Timeout bounds how long a single operation may run.
//
//   - Bulkhead caps concurrent operations so one slow tool cannot hold
//     every dispatcher slot.
//
//   - RateLimiter is a token bucket for throttling request intake on the
//     HTTP transports.
//
// Patterns compose through Executor, which applies them in a fixed order:
// rate limiter outermost, then bulkhead, circuit breaker, retry, and
// timeout innermost. Each retry attempt therefore gets a fresh deadline.
//
//	exec := resilience.NewExecutor(
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithTimeout(10*time.Second),
//	)
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return fetchForecast(ctx, place)
//	})
package resilience
