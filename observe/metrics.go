package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records gateway counters and timings.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly; recording never blocks a request.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordInvocation records a tool invocation with duration and error status.
	RecordInvocation(ctx context.Context, meta ToolMeta, duration time.Duration, err error)

	// RecordRequest records a dispatched request by method and error code.
	// A code of zero means the request succeeded.
	RecordRequest(ctx context.Context, method string, code int)

	// RecordDenial records an authentication denial by reason.
	RecordDenial(ctx context.Context, reason string)
}

type metricsImpl struct {
	meter        metric.Meter
	invokeCount  metric.Int64Counter
	invokeErrors metric.Int64Counter
	durationHist metric.Float64Histogram
	requestCount metric.Int64Counter
	denialCount  metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	invokeCount, err := meter.Int64Counter(
		"tool.invoke.total",
		metric.WithDescription("Total number of tool invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	invokeErrors, err := meter.Int64Counter(
		"tool.invoke.errors",
		metric.WithDescription("Total number of failed tool invocations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"tool.invoke.duration_ms",
		metric.WithDescription("Tool invocation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"rpc.requests.total",
		metric.WithDescription("Total number of dispatched requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	denialCount, err := meter.Int64Counter(
		"auth.denials.total",
		metric.WithDescription("Total number of authentication denials"),
		metric.WithUnit("{denial}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		invokeCount:  invokeCount,
		invokeErrors: invokeErrors,
		durationHist: durationHist,
		requestCount: requestCount,
		denialCount:  denialCount,
	}, nil
}

// RecordInvocation records counters and the duration histogram for one invocation.
func (m *metricsImpl) RecordInvocation(ctx context.Context, meta ToolMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("tool.name", meta.Name),
	}
	if meta.Effect != "" {
		attrs = append(attrs, attribute.String("tool.effect", meta.Effect))
	}
	opt := metric.WithAttributes(attrs...)

	m.invokeCount.Add(ctx, 1, opt)
	if err != nil {
		m.invokeErrors.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordRequest(ctx context.Context, method string, code int) {
	m.requestCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("rpc.method", method),
		attribute.Int("rpc.error_code", code),
	))
}

func (m *metricsImpl) RecordDenial(ctx context.Context, reason string) {
	m.denialCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("auth.reason", reason),
	))
}

// noopMetrics records nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordInvocation(context.Context, ToolMeta, time.Duration, error) {}
func (m *noopMetrics) RecordRequest(context.Context, string, int)                       {}
func (m *noopMetrics) RecordDenial(context.Context, string)                             {}
