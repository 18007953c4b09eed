// Package cache provides deterministic response caching for remote calls.
//
// It provides a canonical serializer, SHA-256 key generation with collision
// tracking, a bounded in-memory cache with per-prefix TTLs and LRU eviction,
// and a middleware that memoizes successful responses only.
package cache
