package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ToolMeta identifies a tool invocation for telemetry purposes.
type ToolMeta struct {
	Name      string // Tool name (required)
	Effect    string // read_only or mutating (optional)
	Transport string // Transport the request arrived on (optional)
}

// SpanName returns the deterministic span name for this invocation.
// Format: tool.invoke.<name>
func (m ToolMeta) SpanName() string {
	return "tool.invoke." + m.Name
}

// Tracer wraps OpenTelemetry tracing with invocation span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a tool invocation.
	StartSpan(ctx context.Context, meta ToolMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with tool metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta ToolMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("tool.name", meta.Name),
		attribute.Bool("tool.error", false),
	}
	if meta.Effect != "" {
		attrs = append(attrs, attribute.String("tool.effect", meta.Effect))
	}
	if meta.Transport != "" {
		attrs = append(attrs, attribute.String("gateway.transport", meta.Transport))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("tool.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer discards all spans.
type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ToolMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
