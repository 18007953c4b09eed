// Package research is the entry point for remote code research.
//
// An Orchestrator owns one response cache, one key generator, one credential
// pool and one content processor. Every call follows the same path:
//
//	filter -> query builder -> cache lookup -> GitHub (throttle, bulkhead,
//	circuit breaker, single rate-limit retry) -> cache store -> content
//	processor -> typed response
//
// Searches cover code, repositories, pull requests, issues and commits.
// FetchContent returns a whole file or a line range, byte range or pattern
// window of it. ViewStructure lists a directory tree.
//
// Cache keys include a fingerprint of the credential, never the credential
// itself, so results visible to one token are not served to another.
package research
