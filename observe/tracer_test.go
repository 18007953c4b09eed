package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewTracer(tp.Tracer("test")), recorder
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[string]attribute.Value {
	m := make(map[string]attribute.Value)
	for _, a := range s.Attributes() {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestOperationMeta_Names(t *testing.T) {
	tests := []struct {
		meta     OperationMeta
		wantSpan string
		wantID   string
	}{
		{OperationMeta{Kind: KindSearch, Name: "code"}, "codescout.search.code", "search.code"},
		{OperationMeta{Kind: KindFetch, Name: "file"}, "codescout.fetch.file", "fetch.file"},
		{OperationMeta{Kind: KindStructure}, "codescout.structure", "structure"},
	}

	for _, tt := range tests {
		t.Run(tt.wantID, func(t *testing.T) {
			if got := tt.meta.SpanName(); got != tt.wantSpan {
				t.Errorf("SpanName() = %q, want %q", got, tt.wantSpan)
			}
			if got := tt.meta.ID(); got != tt.wantID {
				t.Errorf("ID() = %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestOperationMeta_Validate(t *testing.T) {
	if err := (OperationMeta{}).Validate(); !errors.Is(err, ErrMissingOperationKind) {
		t.Errorf("Validate() = %v, want ErrMissingOperationKind", err)
	}
	if err := (OperationMeta{Kind: KindSearch}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestTracer_SpanAttributes(t *testing.T) {
	tr, recorder := newRecordingTracer()

	ctx := WithRequestID(context.Background(), "req-1")
	_, span := tr.StartSpan(ctx, OperationMeta{Kind: KindFetch, Name: "file", Repository: "golang/go"})
	tr.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "codescout.fetch.file" {
		t.Errorf("span name = %q", s.Name())
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", s.Status().Code)
	}

	attrs := spanAttrs(s)
	wantStrings := map[string]string{
		"op.kind":           "fetch",
		"op.name":           "file",
		"github.repository": "golang/go",
		"request.id":        "req-1",
	}
	for k, want := range wantStrings {
		if v, ok := attrs[k]; !ok || v.AsString() != want {
			t.Errorf("%s = %v, want %q", k, v, want)
		}
	}
	if v, ok := attrs["op.error"]; !ok || v.AsBool() {
		t.Errorf("op.error = %v, want false", v)
	}
}

func TestTracer_MinimalAttributes(t *testing.T) {
	tr, recorder := newRecordingTracer()

	_, span := tr.StartSpan(context.Background(), OperationMeta{Kind: KindSearch})
	tr.EndSpan(span, nil)

	attrs := spanAttrs(recorder.Ended()[0])
	for _, k := range []string{"op.name", "github.repository", "request.id"} {
		if _, ok := attrs[k]; ok {
			t.Errorf("unexpected attribute %s", k)
		}
	}
}

func TestTracer_ContextPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otelTracer := tp.Tracer("test")
	tr := NewTracer(otelTracer)

	parentCtx, parent := otelTracer.Start(context.Background(), "parent")
	_, child := tr.StartSpan(parentCtx, OperationMeta{Kind: KindSearch, Name: "issues"})
	tr.EndSpan(child, nil)
	parent.End()

	var found sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() == "codescout.search.issues" {
			found = s
		}
	}
	if found == nil {
		t.Fatal("child span not found")
	}
	if found.Parent().TraceID() != parent.SpanContext().TraceID() {
		t.Error("child span should share the parent trace id")
	}
}

func TestTracer_ErrorRecording(t *testing.T) {
	tr, recorder := newRecordingTracer()

	_, span := tr.StartSpan(context.Background(), OperationMeta{Kind: KindSearch, Name: "code"})
	tr.EndSpan(span, errors.New("rate limited"))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", s.Status().Code)
	}
	if v := spanAttrs(s)["op.error"]; !v.AsBool() {
		t.Error("expected op.error=true")
	}
	if len(s.Events()) == 0 {
		t.Error("expected the error to be recorded as an event")
	}
}

func TestNoopTracer(t *testing.T) {
	tr := NoopTracer()
	ctx, span := tr.StartSpan(context.Background(), OperationMeta{Kind: KindSearch})
	if ctx == nil {
		t.Fatal("nil context")
	}
	tr.EndSpan(span, errors.New("ignored"))
}
