package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestMiddleware_RunSuccess(t *testing.T) {
	tr, recorder := newRecordingTracer()
	m, reader := newTestMetrics(t)
	var buf bytes.Buffer
	mw := NewMiddleware(tr, m, NewLoggerWithWriter("info", &buf))

	meta := OperationMeta{Kind: KindSearch, Name: "code"}
	var sawSpan bool
	err := mw.Run(context.Background(), meta, func(ctx context.Context) error {
		sawSpan = trace.SpanFromContext(ctx).SpanContext().IsValid()
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sawSpan {
		t.Error("wrapped function must receive the span context")
	}

	if spans := recorder.Ended(); len(spans) != 1 || spans[0].Name() != "codescout.search.code" {
		t.Fatalf("unexpected spans: %v", spans)
	}
	if got := counterTotal(t, collect(t, reader), "codescout.op.total"); got != 1 {
		t.Errorf("op.total = %d, want 1", got)
	}

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 || entries[0]["msg"] != "operation completed" {
		t.Fatalf("unexpected log entries: %v", entries)
	}
	if _, ok := entries[0]["duration_ms"]; !ok {
		t.Error("missing duration_ms")
	}
}

func TestMiddleware_RunError(t *testing.T) {
	tr, recorder := newRecordingTracer()
	m, reader := newTestMetrics(t)
	var buf bytes.Buffer
	mw := NewMiddleware(tr, m, NewLoggerWithWriter("info", &buf))

	wantErr := errors.New("not found")
	err := mw.Run(context.Background(), OperationMeta{Kind: KindFetch, Name: "file"}, func(context.Context) error {
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("Run error = %v, want the original error", err)
	}

	if len(recorder.Ended()) != 1 {
		t.Fatal("span not ended")
	}
	if got := counterTotal(t, collect(t, reader), "codescout.op.errors"); got != 1 {
		t.Errorf("op.errors = %d, want 1", got)
	}
	e := decodeEntries(t, &buf)[0]
	if e["level"] != "error" || e["error"] != "not found" || e["op.kind"] != "fetch" {
		t.Errorf("unexpected log entry: %v", e)
	}
}

func TestObserve_ReturnsValue(t *testing.T) {
	mw := NopMiddleware()

	got, err := Observe(context.Background(), mw, OperationMeta{Kind: KindStructure}, func(context.Context) (int, error) {
		return 7, nil
	})
	if err != nil || got != 7 {
		t.Fatalf("Observe = %d, %v; want 7, nil", got, err)
	}
}

func TestNewMiddleware_NilComponents(t *testing.T) {
	mw := NewMiddleware(nil, nil, nil)
	if mw.Metrics() == nil || mw.Logger() == nil {
		t.Fatal("nil components must default to no-ops")
	}
	if err := mw.Run(context.Background(), OperationMeta{Kind: KindSearch}, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
