// Package observe provides tracing, metrics and structured logging for
// orchestrated GitHub operations.
//
// Observer owns the OpenTelemetry tracer and meter providers built from
// Config. Middleware opens one span per operation and records its duration
// and outcome; Metrics also carries API call, cache lookup and rate-limit
// counters recorded by the layers below. Logger writes one JSON object per
// entry and redacts credential-shaped field keys.
package observe
