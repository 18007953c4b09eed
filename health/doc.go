// Package health reports on the components behind a research session.
//
// A Checker returns a Result carrying a Status plus human-readable issues
// and recommendations. CacheChecker judges response cache effectiveness,
// RateLimitChecker watches the per-credential GitHub rate snapshots,
// CircuitChecker mirrors the API circuit breaker and MemoryChecker watches
// heap usage. An Aggregator runs checkers with a shared timeout and merges
// them into a Report; the HTTP handlers expose that report:
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg) // /healthz, /readyz, /health, /health/{name}
package health
