package resilience

import (
	"context"
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	// StateClosed admits every request.
	StateClosed State = iota
	// StateOpen rejects every request without calling the dependency.
	StateOpen
	// StateHalfOpen admits a limited number of probe requests.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the consecutive failure count that opens the
	// circuit. Default: 5.
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing
	// the dependency again. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMaxRequests caps in-flight probes while half-open.
	// Default: 1.
	HalfOpenMaxRequests int

	// OnStateChange is invoked on every state transition.
	OnStateChange func(from, to State)

	// IsFailure decides whether an error counts toward MaxFailures.
	// The default counts every non-nil error. Callers whose errors
	// include definitive answers from a healthy dependency (an
	// inactive token, a 404) exclude them here so those answers never
	// trip the breaker.
	IsFailure func(err error) bool
}

// CircuitBreaker sheds load from a dependency that keeps failing. While
// closed it passes requests through and counts consecutive failures.
// Reaching MaxFailures opens the circuit: Execute rejects with
// ErrCircuitOpen until ResetTimeout has elapsed, then a limited number
// of probes is admitted. A successful probe closes the circuit again, a
// failed one reopens it.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
	probes      int
}

// NewCircuitBreaker builds a breaker, applying defaults for unset
// fields.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{config: config, state: StateClosed}
}

// Execute runs op if the breaker admits it and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := op(ctx)
	cb.record(err)
	return err
}

// State reports the current state, promoting open to half-open once
// ResetTimeout has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

// Reset forces the breaker closed and clears all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	prev := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0

	if prev != StateClosed && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(prev, StateClosed)
	}
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.stateLocked() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.probes >= cb.config.HalfOpenMaxRequests {
			return ErrCircuitOpen
		}
		cb.probes++
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := cb.config.IsFailure(err)
	prev := cb.state

	switch cb.state {
	case StateClosed:
		if failed {
			cb.failures++
			cb.lastFailure = time.Now()
			if cb.failures >= cb.config.MaxFailures {
				cb.state = StateOpen
			}
		} else {
			cb.successes++
			cb.failures = 0
		}

	case StateHalfOpen:
		if failed {
			// The cooldown restarts from the failed probe.
			cb.lastFailure = time.Now()
			cb.state = StateOpen
		} else {
			cb.successes++
			cb.state = StateClosed
			cb.failures = 0
		}
	}

	if prev != cb.state && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(prev, cb.state)
	}
}

// stateLocked returns the effective state, performing the open to
// half-open transition when the cooldown has passed. cb.mu must be
// held.
func (cb *CircuitBreaker) stateLocked() State {
	if cb.state == StateOpen && time.Since(cb.lastFailure) >= cb.config.ResetTimeout {
		cb.state = StateHalfOpen
		cb.probes = 0
		if cb.config.OnStateChange != nil {
			cb.config.OnStateChange(StateOpen, StateHalfOpen)
		}
	}
	return cb.state
}

// CircuitBreakerMetrics is a point-in-time snapshot of a breaker.
type CircuitBreakerMetrics struct {
	State       State
	Failures    int       // consecutive failures in the current closed window
	Successes   int       // successes since the last Reset
	LastFailure time.Time // zero until the first failure
}

// Metrics returns a snapshot of the breaker's counters.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerMetrics{
		State:       cb.stateLocked(),
		Failures:    cb.failures,
		Successes:   cb.successes,
		LastFailure: cb.lastFailure,
	}
}
