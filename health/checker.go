package health

import (
	"context"
	"time"
)

// Status grades how fit a component is to serve. Severity increases
// with the constant value; OverallStatus relies on the order.
type Status int

const (
	// StatusHealthy means the component is fully operational.
	StatusHealthy Status = iota
	// StatusDegraded means the component still serves, but with reduced
	// capacity or a missing optional dependency.
	StatusDegraded
	// StatusUnhealthy means the component cannot do its job.
	StatusUnhealthy
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single probe.
type Result struct {
	// Status grades the probed component.
	Status Status

	// Message is a one-line summary for humans.
	Message string

	// Details carries probe-specific metadata, surfaced verbatim by the
	// detailed endpoint.
	Details map[string]any

	// Duration is how long the probe took.
	Duration time.Duration

	// Timestamp is when the probe ran.
	Timestamp time.Time

	// Error is the underlying failure, if any.
	Error error
}

// Healthy builds a healthy result with the given summary.
func Healthy(message string) Result {
	return Result{
		Status:    StatusHealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Degraded builds a degraded result with the given summary.
func Degraded(message string) Result {
	return Result{
		Status:    StatusDegraded,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Unhealthy builds an unhealthy result carrying the underlying error.
func Unhealthy(message string, err error) Result {
	return Result{
		Status:    StatusUnhealthy,
		Message:   message,
		Error:     err,
		Timestamp: time.Now(),
	}
}

// WithDetails returns a copy of the result with details attached.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithDuration returns a copy of the result with the duration set.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// Checker probes one component.
//
// Contract:
//   - Check reports failure through the Result, never by panicking.
//   - Check returns promptly once ctx is done; a probe that cannot is
//     cut off by the aggregator and reported as timed out.
type Checker interface {
	// Name identifies the component in aggregated output.
	Name() string

	// Check probes the component once.
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a bare function into a named Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc wraps fn as a Checker reporting under name.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name identifies the component in aggregated output.
func (f *CheckerFunc) Name() string {
	return f.name
}

// Check invokes the wrapped function.
func (f *CheckerFunc) Check(ctx context.Context) Result {
	return f.fn(ctx)
}
