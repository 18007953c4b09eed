package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Operation kinds used by the orchestrator.
const (
	KindSearch    = "search"
	KindFetch     = "fetch"
	KindStructure = "structure"
)

// OperationMeta describes one orchestrated GitHub operation for telemetry
// purposes.
type OperationMeta struct {
	Kind       string // Operation kind: search, fetch or structure (required)
	Name       string // Entity or mode, e.g. "code" or "pull_requests" (optional)
	Repository string // owner/name when the operation targets one repository (optional)
}

// SpanName returns the deterministic span name for this operation.
// Format: codescout.<kind>.<name> or codescout.<kind>
func (m OperationMeta) SpanName() string {
	if m.Name != "" {
		return "codescout." + m.Kind + "." + m.Name
	}
	return "codescout." + m.Kind
}

// ID returns kind.name, or the kind alone.
func (m OperationMeta) ID() string {
	if m.Name != "" {
		return m.Kind + "." + m.Name
	}
	return m.Kind
}

// Validate reports ErrMissingOperationKind when Kind is empty.
func (m OperationMeta) Validate() error {
	if m.Kind == "" {
		return ErrMissingOperationKind
	}
	return nil
}

func (m OperationMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("op.kind", m.Kind),
	}
	if m.Name != "" {
		attrs = append(attrs, attribute.String("op.name", m.Name))
	}
	if m.Repository != "" {
		attrs = append(attrs, attribute.String("github.repository", m.Repository))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with one span per operation.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan returns a context carrying the new span.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for an operation.
	StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer backed by t.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with operation metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("op.error", false))
	if id := RequestID(ctx); id != "" {
		attrs = append(attrs, attribute.String("request.id", id))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("op.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

// NoopTracer returns a tracer that records nothing.
func NoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
