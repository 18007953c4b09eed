package observe

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// LogLevel orders log entries by severity.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

// ParseLogLevel maps a level name to its LogLevel. Unknown names are info.
func ParseLogLevel(s string) LogLevel {
	for i, name := range levelNames {
		if name == s {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return levelNames[LevelInfo]
	}
	return levelNames[l]
}

type requestIDKey struct{}

// WithRequestID returns a context whose log entries and spans carry id as
// request.id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// structuredLogger writes one JSON object per entry. Loggers derived with
// WithOperation share the writer and its lock.
type structuredLogger struct {
	level LogLevel
	out   *lockedWriter
	attrs []Field
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) write(p []byte) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, _ = lw.w.Write(p)
}

// NewLogger returns a JSON logger on stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter returns a JSON logger on w.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &structuredLogger{level: ParseLogLevel(level), out: &lockedWriter{w: w}}
}

// WithOperation adds op.kind, op.name and github.repository to every entry.
func (l *structuredLogger) WithOperation(meta OperationMeta) Logger {
	attrs := append(slices.Clip(l.attrs), Field{Key: "op.kind", Value: meta.Kind})
	if meta.Name != "" {
		attrs = append(attrs, Field{Key: "op.name", Value: meta.Name})
	}
	if meta.Repository != "" {
		attrs = append(attrs, Field{Key: "github.repository", Value: meta.Repository})
	}
	return &structuredLogger{level: l.level, out: l.out, attrs: attrs}
}

func (l *structuredLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelDebug, msg, fields)
}

func (l *structuredLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelInfo, msg, fields)
}

func (l *structuredLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelWarn, msg, fields)
}

func (l *structuredLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelError, msg, fields)
}

func (l *structuredLogger) log(ctx context.Context, level LogLevel, msg string, fields []Field) {
	if level < l.level {
		return
	}

	entry := make(map[string]any, len(l.attrs)+len(fields)+4)
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg
	if id := RequestID(ctx); id != "" {
		entry["request.id"] = id
	}
	for _, set := range [][]Field{l.attrs, fields} {
		for _, f := range set {
			if redactedKeys[strings.ToLower(f.Key)] {
				entry[f.Key] = "[REDACTED]"
			} else {
				entry[f.Key] = f.Value
			}
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	l.out.write(append(data, '\n'))
}

var redactedKeys = map[string]bool{
	"token":          true,
	"github_token":   true,
	"x-github-token": true,
	"authorization":  true,
	"api_key":        true,
	"x-api-key":      true,
	"jwt":            true,
	"secret":         true,
	"password":       true,
	"credential":     true,
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return noopLogger{} }

func (noopLogger) Info(ctx context.Context, msg string, fields ...Field)  {}
func (noopLogger) Warn(ctx context.Context, msg string, fields ...Field)  {}
func (noopLogger) Error(ctx context.Context, msg string, fields ...Field) {}
func (noopLogger) Debug(ctx context.Context, msg string, fields ...Field) {}
func (l noopLogger) WithOperation(meta OperationMeta) Logger              { return l }

var (
	_ Logger = (*structuredLogger)(nil)
	_ Logger = noopLogger{}
)
