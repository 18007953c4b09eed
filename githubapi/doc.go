// Package githubapi is the boundary to the GitHub REST API.
//
// Client runs code, repository, pull request, issue and commit searches and
// reads repository contents through a Pool of per-credential go-github
// clients. Every call goes through a resilience executor: a client-side
// search throttle, a concurrency bulkhead, a shared circuit breaker, a retry
// that repeats a rate-limited call exactly once after the provider's delay,
// and a per-call timeout.
//
// Failures surface as *APIError values whose Kind callers branch on with
// errors.As or errors.Is against the Err* sentinels.
package githubapi
