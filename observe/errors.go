package observe

import "errors"

// Errors returned by Config.Validate. A config with several problems
// reports all of them joined.
var (
	ErrMissingServiceName     = errors.New("observe: service_name is required")
	ErrInvalidSamplePct       = errors.New("observe: tracing.sample_pct must be within [0, 1]")
	ErrInvalidTracingExporter = errors.New("observe: unsupported tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: unsupported metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: unsupported log level")
)

// ErrNilObserver is returned by MiddlewareFromObserver for a nil Observer.
var ErrNilObserver = errors.New("observe: nil observer")

// ErrMissingOperationKind is returned by OperationMeta.Validate.
var ErrMissingOperationKind = errors.New("observe: operation kind is empty")
