package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records operation, API, cache and rate-limit metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOperation records one orchestrated operation.
	RecordOperation(ctx context.Context, meta OperationMeta, duration time.Duration, err error)

	// RecordAPICall records one outbound GitHub request. errorKind is empty on success.
	RecordAPICall(ctx context.Context, endpoint string, duration time.Duration, errorKind string)

	// RecordCacheLookup records a response cache hit or miss for prefix.
	RecordCacheLookup(ctx context.Context, prefix string, hit bool)

	// RecordRateLimit records a primary or secondary rate-limit signal.
	RecordRateLimit(ctx context.Context, endpoint string, errorKind string)
}

type metricsImpl struct {
	opTotal    metric.Int64Counter
	opErrors   metric.Int64Counter
	opDuration metric.Float64Histogram

	apiTotal    metric.Int64Counter
	apiErrors   metric.Int64Counter
	apiDuration metric.Float64Histogram

	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
	rateLimits  metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	m := &metricsImpl{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.opTotal, "codescout.op.total", "Total number of orchestrated operations", "{operation}"},
		{&m.opErrors, "codescout.op.errors", "Total number of failed operations", "{error}"},
		{&m.apiTotal, "codescout.api.calls", "Total number of GitHub API requests", "{call}"},
		{&m.apiErrors, "codescout.api.errors", "Total number of failed GitHub API requests", "{error}"},
		{&m.cacheHits, "codescout.cache.hits", "Response cache hits", "{hit}"},
		{&m.cacheMisses, "codescout.cache.misses", "Response cache misses", "{miss}"},
		{&m.rateLimits, "codescout.ratelimit.hits", "Rate-limit signals received from GitHub", "{signal}"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
	}

	m.opDuration, err = meter.Float64Histogram(
		"codescout.op.duration_ms",
		metric.WithDescription("Operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	m.apiDuration, err = meter.Float64Histogram(
		"codescout.api.duration_ms",
		metric.WithDescription("GitHub API request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordOperation(ctx context.Context, meta OperationMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.opTotal.Add(ctx, 1, opt)
	if err != nil {
		m.opErrors.Add(ctx, 1, opt)
	}
	m.opDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordAPICall(ctx context.Context, endpoint string, duration time.Duration, errorKind string) {
	opt := metric.WithAttributes(attribute.String("api.endpoint", endpoint))

	m.apiTotal.Add(ctx, 1, opt)
	if errorKind != "" {
		m.apiErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("api.endpoint", endpoint),
			attribute.String("error.kind", errorKind),
		))
	}
	m.apiDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, prefix string, hit bool) {
	opt := metric.WithAttributes(attribute.String("cache.prefix", prefix))
	if hit {
		m.cacheHits.Add(ctx, 1, opt)
	} else {
		m.cacheMisses.Add(ctx, 1, opt)
	}
}

func (m *metricsImpl) RecordRateLimit(ctx context.Context, endpoint string, errorKind string) {
	m.rateLimits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("api.endpoint", endpoint),
		attribute.String("error.kind", errorKind),
	))
}

type noopMetrics struct{}

// NoopMetrics returns a Metrics that records nothing.
func NoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) RecordOperation(context.Context, OperationMeta, time.Duration, error) {}
func (noopMetrics) RecordAPICall(context.Context, string, time.Duration, string)        {}
func (noopMetrics) RecordCacheLookup(context.Context, string, bool)                     {}
func (noopMetrics) RecordRateLimit(context.Context, string, string)                     {}
