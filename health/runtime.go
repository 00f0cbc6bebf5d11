package health

import (
	"context"
	"fmt"
	"runtime"
)

// RuntimeCheckerConfig bounds the process resources the checker flags.
type RuntimeCheckerConfig struct {
	// MaxHeapBytes is the heap allocation treated as the full budget.
	// At WarnFraction of it the process reports degraded, at or beyond
	// it unhealthy. Zero disables the bound and the checker only
	// reports stats.
	MaxHeapBytes uint64

	// WarnFraction of MaxHeapBytes marks the process degraded.
	// Default: 0.8.
	WarnFraction float64

	// MaxGoroutines marks the process degraded when exceeded. A steady
	// climb usually means leaked session streams. Zero disables the
	// bound.
	MaxGoroutines int
}

// RuntimeChecker samples Go runtime resource usage.
type RuntimeChecker struct {
	config RuntimeCheckerConfig
}

// NewRuntimeChecker creates a runtime resource checker, applying
// defaults for unset fields.
func NewRuntimeChecker(config RuntimeCheckerConfig) *RuntimeChecker {
	if config.WarnFraction <= 0 || config.WarnFraction >= 1 {
		config.WarnFraction = 0.8
	}
	return &RuntimeChecker{config: config}
}

// Name identifies the checker.
func (c *RuntimeChecker) Name() string {
	return "runtime"
}

// Check samples memory statistics and the goroutine count.
func (c *RuntimeChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("check cancelled", err)
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	goroutines := runtime.NumGoroutine()

	details := map[string]any{
		"heap_alloc_bytes":  stats.HeapAlloc,
		"heap_sys_bytes":    stats.HeapSys,
		"total_alloc_bytes": stats.TotalAlloc,
		"gc_cycles":         stats.NumGC,
		"goroutines":        goroutines,
	}

	if c.config.MaxGoroutines > 0 && goroutines > c.config.MaxGoroutines {
		return Degraded(fmt.Sprintf("%d goroutines, limit %d", goroutines, c.config.MaxGoroutines)).
			WithDetails(details)
	}

	if c.config.MaxHeapBytes > 0 {
		used := float64(stats.HeapAlloc) / float64(c.config.MaxHeapBytes)
		details["heap_used_percent"] = used * 100
		switch {
		case used >= 1:
			return Unhealthy(fmt.Sprintf("heap over budget: %.1f%%", used*100), ErrCheckFailed).
				WithDetails(details)
		case used >= c.config.WarnFraction:
			return Degraded(fmt.Sprintf("heap usage high: %.1f%%", used*100)).
				WithDetails(details)
		}
	}

	return Healthy(fmt.Sprintf("heap %.1f MiB, %d goroutines",
		float64(stats.HeapAlloc)/(1<<20), goroutines)).WithDetails(details)
}
