package health

import (
	"context"
	"time"
)

// Pinger is the probe surface a dependency exposes. The memory store
// and the introspection gate both implement it.
type Pinger interface {
	// Ping reports whether the dependency is reachable. It must not
	// mutate anything.
	Ping(ctx context.Context) error
}

// PingCheckerConfig configures a reachability probe for one dependency.
type PingCheckerConfig struct {
	// Name identifies the dependency in aggregated output.
	Name string

	// Pinger is probed on every check.
	Pinger Pinger

	// Soft reports an unreachable dependency as degraded instead of
	// unhealthy. The authorization server is soft: cached verdicts keep
	// requests flowing through a short outage.
	Soft bool
}

// PingChecker reports a dependency healthy while its Ping succeeds.
type PingChecker struct {
	config PingCheckerConfig
}

// NewPingChecker creates a reachability checker for one dependency.
func NewPingChecker(config PingCheckerConfig) *PingChecker {
	return &PingChecker{config: config}
}

// Name identifies the probed dependency.
func (c *PingChecker) Name() string {
	return c.config.Name
}

// Check probes the dependency once.
func (c *PingChecker) Check(ctx context.Context) Result {
	if err := c.config.Pinger.Ping(ctx); err != nil {
		if c.config.Soft {
			result := Degraded(c.config.Name + " unreachable")
			result.Error = err
			return result
		}
		return Unhealthy(c.config.Name+" unreachable", err)
	}
	return Healthy(c.config.Name + " reachable")
}

// UptimeChecker reports how long the process has been serving. It is
// informational and never degrades.
type UptimeChecker struct {
	started time.Time
}

// NewUptimeChecker creates an uptime reporter anchored at the call
// time.
func NewUptimeChecker() *UptimeChecker {
	return &UptimeChecker{started: time.Now()}
}

// Name identifies the checker.
func (u *UptimeChecker) Name() string {
	return "uptime"
}

// Check reports the elapsed time since construction.
func (u *UptimeChecker) Check(_ context.Context) Result {
	uptime := time.Since(u.started)
	return Healthy("up " + uptime.Round(time.Second).String()).WithDetails(map[string]any{
		"started_at":     u.started.UTC().Format(time.RFC3339),
		"uptime_seconds": int64(uptime.Seconds()),
	})
}
