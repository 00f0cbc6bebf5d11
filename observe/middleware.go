package observe

import (
	"context"
	"time"
)

// InvokeFunc is the invocation signature the Middleware wraps.
type InvokeFunc func(ctx context.Context, meta ToolMeta, args map[string]any) (any, error)

// Middleware wraps tool invocations with tracing, metrics, and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe InvokeFunc.
//   - Context: propagates context through tracing spans.
//   - Errors: errors from the wrapped function are recorded and propagated unchanged.
//   - Ownership: arguments and results pass through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware from the given components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap instruments fn with a span, an invocation metric, and a log line.
func (m *Middleware) Wrap(fn InvokeFunc) InvokeFunc {
	return func(ctx context.Context, meta ToolMeta, args map[string]any) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		result, err := fn(ctx, meta, args)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordInvocation(ctx, meta, duration, err)

		toolLogger := m.logger.WithTool(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			toolLogger.Error(ctx, "tool invocation failed", fields...)
		} else {
			toolLogger.Info(ctx, "tool invocation completed", fields...)
		}

		return result, err
	}
}

// Metrics exposes the middleware's metrics recorder for callers that
// record request and denial counters outside the wrapped path.
func (m *Middleware) Metrics() Metrics {
	return m.metrics
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
