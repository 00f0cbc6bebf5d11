package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// AggregatorConfig configures a check sweep.
type AggregatorConfig struct {
	// Timeout bounds one whole sweep. Checkers still running when it
	// expires are reported as timed out. Default: 10s.
	Timeout time.Duration

	// Parallel runs checkers concurrently. Default: true.
	Parallel bool
}

// Aggregator runs registered checkers and reduces their results to a
// single status.
type Aggregator struct {
	config   AggregatorConfig
	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string
}

// NewAggregator creates an aggregator, applying defaults for unset
// fields.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	cfg := AggregatorConfig{
		Timeout:  10 * time.Second,
		Parallel: true,
	}
	if len(config) > 0 {
		cfg = config[0]
		if cfg.Timeout <= 0 {
			cfg.Timeout = 10 * time.Second
		}
	}

	return &Aggregator{
		config:   cfg,
		checkers: make(map[string]Checker),
	}
}

// Register adds a checker under name, replacing any previous one. The
// first registration fixes the position CheckerNames reports.
func (a *Aggregator) Register(name string, checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = checker
}

// Unregister removes the named checker. Unknown names are ignored.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.checkers, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// CheckerNames returns registered names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

// Check runs the single named checker under the sweep timeout. It
// returns ErrCheckerNotFound for a name nothing is registered under.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()

	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrCheckerNotFound, name)
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	return a.runCheck(ctx, checker), nil
}

// CheckAll sweeps every registered checker and returns results by name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	checkers := make(map[string]Checker, len(a.checkers))
	for name, checker := range a.checkers {
		checkers[name] = checker
	}
	a.mu.RUnlock()

	results := make(map[string]Result, len(checkers))
	if len(checkers) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	if !a.config.Parallel {
		for name, checker := range checkers {
			results[name] = a.runCheck(ctx, checker)
		}
		return results
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for name, checker := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := a.runCheck(ctx, checker)
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()

	return results
}

// OverallStatus reduces a result set to the worst status present. An
// empty set is healthy.
func (a *Aggregator) OverallStatus(results map[string]Result) Status {
	worst := StatusHealthy
	for _, result := range results {
		if result.Status > worst {
			worst = result.Status
		}
	}
	return worst
}

func (a *Aggregator) runCheck(ctx context.Context, checker Checker) Result {
	start := time.Now()

	// A checker that ignores ctx keeps running on its own goroutine
	// after the deadline; the buffered channel lets it finish without a
	// reader.
	resultCh := make(chan Result, 1)
	go func() {
		result := checker.Check(ctx)
		result.Duration = time.Since(start)
		if result.Timestamp.IsZero() {
			result.Timestamp = start
		}
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		return result
	case <-ctx.Done():
		return Result{
			Status:    StatusUnhealthy,
			Message:   "check timed out",
			Error:     ErrCheckTimeout,
			Duration:  time.Since(start),
			Timestamp: start,
		}
	}
}

// Checker adapts the whole aggregator into a single Checker, so one
// gateway can report as one component of another.
func (a *Aggregator) Checker() Checker {
	return &aggregatorChecker{agg: a}
}

type aggregatorChecker struct {
	agg *Aggregator
}

func (c *aggregatorChecker) Name() string {
	return "aggregate"
}

func (c *aggregatorChecker) Check(ctx context.Context) Result {
	results := c.agg.CheckAll(ctx)
	status := c.agg.OverallStatus(results)

	details := make(map[string]any, len(results))
	for name, result := range results {
		details[name] = map[string]any{
			"status":   result.Status.String(),
			"message":  result.Message,
			"duration": result.Duration.String(),
		}
	}

	var message string
	switch status {
	case StatusUnhealthy:
		message = "some checks failed"
	case StatusDegraded:
		message = "some checks degraded"
	default:
		message = "all checks passed"
	}

	return Result{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}
