package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestLogger_OperationFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).WithOperation(OperationMeta{
		Kind:       KindFetch,
		Name:       "file",
		Repository: "golang/go",
	})

	logger.Info(context.Background(), "fetched", Field{Key: "bytes", Value: 42})

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	want := map[string]any{
		"op.kind":           "fetch",
		"op.name":           "file",
		"github.repository": "golang/go",
		"msg":               "fetched",
		"level":             "info",
		"bytes":             float64(42),
	}
	for k, v := range want {
		if e[k] != v {
			t.Errorf("%s = %v, want %v", k, e[k], v)
		}
	}
	if _, ok := e["timestamp"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestLogger_RequestIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	ctx := WithRequestID(context.Background(), "req-123")
	logger.Warn(ctx, "rate limited")
	logger.Warn(context.Background(), "no id")

	entries := decodeEntries(t, &buf)
	if entries[0]["request.id"] != "req-123" {
		t.Errorf("request.id = %v, want req-123", entries[0]["request.id"])
	}
	if _, ok := entries[1]["request.id"]; ok {
		t.Error("request.id must be absent without WithRequestID")
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	logger.Info(context.Background(), "client resolved",
		Field{Key: "token", Value: "ghp_secretvalue"},
		Field{Key: "authorization", Value: "Bearer abc"},
		Field{Key: "fingerprint", Value: "deadbeef"},
	)

	out := buf.String()
	if strings.Contains(out, "ghp_secretvalue") || strings.Contains(out, "Bearer abc") {
		t.Fatalf("sensitive values leaked: %s", out)
	}
	e := decodeEntries(t, &buf)[0]
	if e["token"] != "[REDACTED]" {
		t.Errorf("token = %v, want [REDACTED]", e["token"])
	}
	if e["fingerprint"] != "deadbeef" {
		t.Errorf("fingerprint = %v, want deadbeef", e["fingerprint"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"debug", []string{"debug", "info", "warn", "error"}},
		{"info", []string{"info", "warn", "error"}},
		{"warn", []string{"warn", "error"}},
		{"error", []string{"error"}},
		{"bogus", []string{"info", "warn", "error"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(tt.level, &buf)
			ctx := context.Background()
			logger.Debug(ctx, "m")
			logger.Info(ctx, "m")
			logger.Warn(ctx, "m")
			logger.Error(ctx, "m")

			entries := decodeEntries(t, &buf)
			if len(entries) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(entries), len(tt.want))
			}
			for i, e := range entries {
				if e["level"] != tt.want[i] {
					t.Errorf("entry %d level = %v, want %s", i, e["level"], tt.want[i])
				}
			}
		})
	}
}

func TestLogger_DerivedLoggersShareWriter(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerWithWriter("info", &buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := base.WithOperation(OperationMeta{Kind: KindSearch, Name: "code"})
			l.Info(context.Background(), "concurrent")
		}()
	}
	wg.Wait()

	if got := len(decodeEntries(t, &buf)); got != 20 {
		t.Fatalf("got %d entries, want 20", got)
	}
}

func TestNopLogger(t *testing.T) {
	l := NopLogger()
	l.Info(context.Background(), "ignored")
	if l.WithOperation(OperationMeta{Kind: KindSearch}) == nil {
		t.Fatal("WithOperation must return a logger")
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "error"} {
		if got := ParseLogLevel(s).String(); got != s {
			t.Errorf("ParseLogLevel(%q).String() = %q", s, got)
		}
	}
	if ParseLogLevel("verbose") != LevelInfo {
		t.Error("unknown level must default to info")
	}
}
