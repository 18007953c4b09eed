// Package exporters builds the OpenTelemetry span exporters and metric
// readers named in observe.Config.
package exporters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ErrEndpointNotConfigured indicates that none of the endpoint environment
// variables for an exporter is set.
var ErrEndpointNotConfigured = errors.New("exporters: endpoint not configured")

// ErrUnknownExporter indicates an exporter name outside the supported set.
var ErrUnknownExporter = errors.New("exporters: unknown exporter")

// Writer receives stdout exporter output. Default: os.Stdout
var Writer io.Writer = os.Stdout

// otlpEnv holds the variables, any one of which configures an OTLP signal.
var otlpEnv = map[string][]string{
	"traces":  {"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"},
	"metrics": {"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"},
	"jaeger":  {"OTEL_EXPORTER_JAEGER_ENDPOINT"},
}

func requireEndpoint(signal string) error {
	keys := otlpEnv[signal]
	if slices.ContainsFunc(keys, func(k string) bool { return os.Getenv(k) != "" }) {
		return nil
	}
	return fmt.Errorf("%w: set %s", ErrEndpointNotConfigured, strings.Join(keys, " or "))
}

// NewTracingExporter returns the span exporter called name: stdout, otlp,
// jaeger or none. Jaeger is reached over OTLP.
func NewTracingExporter(ctx context.Context, name string) (sdktrace.SpanExporter, error) {
	switch name {
	case "", "none":
		return stdouttrace.New(stdouttrace.WithWriter(io.Discard))
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(Writer))
	case "otlp", "jaeger":
		signal := "traces"
		if name == "jaeger" {
			signal = "jaeger"
		}
		if err := requireEndpoint(signal); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)
	}
	return nil, fmt.Errorf("%w: tracing %q", ErrUnknownExporter, name)
}

// NewMetricsReader returns the metric reader called name: stdout, otlp,
// prometheus or none. Push exporters are read periodically.
func NewMetricsReader(ctx context.Context, name string) (sdkmetric.Reader, error) {
	var (
		exp sdkmetric.Exporter
		err error
	)
	switch name {
	case "", "none":
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(io.Discard))
	case "stdout":
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(Writer))
	case "otlp":
		if err := requireEndpoint("metrics"); err != nil {
			return nil, err
		}
		exp, err = otlpmetricgrpc.New(ctx)
	case "prometheus":
		reader, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("exporters: prometheus: %w", err)
		}
		return reader, nil
	default:
		return nil, fmt.Errorf("%w: metrics %q", ErrUnknownExporter, name)
	}
	if err != nil {
		return nil, fmt.Errorf("exporters: %s metrics: %w", name, err)
	}
	return sdkmetric.NewPeriodicReader(exp), nil
}
