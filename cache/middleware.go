package cache

import "context"

// ExecutorFunc computes a response on cache miss.
type ExecutorFunc func(ctx context.Context) ([]byte, error)

// Middleware wraps remote calls with caching.
type Middleware struct {
	cache  Cache
	keyer  Keyer
	policy Policy
}

// NewMiddleware creates a new cache middleware.
func NewMiddleware(cache Cache, keyer Keyer, policy Policy) *Middleware {
	return &Middleware{
		cache:  cache,
		keyer:  keyer,
		policy: policy,
	}
}

// Execute runs the operation with caching and reports whether the result was
// served from cache.
// On cache hit, returns cached result without calling executor.
// On cache miss, calls executor and caches the result under the prefix TTL.
// Errors are NOT cached, so a failed call is retried on the next request.
func (m *Middleware) Execute(
	ctx context.Context,
	prefix string,
	params any,
	executor ExecutorFunc,
) ([]byte, bool, error) {
	ttl := m.policy.TTLFor(prefix)
	if ttl <= 0 {
		result, err := executor(ctx)
		return result, false, err
	}

	key := m.keyer.Key(prefix, params)
	if err := ValidateKey(key); err != nil {
		// Unusable key - execute without caching
		result, err := executor(ctx)
		return result, false, err
	}

	if cached, ok := m.cache.Get(ctx, key); ok {
		return cached, true, nil
	}

	// Concurrent misses on the same key both execute; no cross-request lock.
	result, err := executor(ctx)
	if err != nil {
		return result, false, err
	}

	_ = m.cache.Set(ctx, key, result, ttl)
	return result, false, nil
}

// Key exposes the key the middleware would use for prefix and params.
func (m *Middleware) Key(prefix string, params any) string {
	return m.keyer.Key(prefix, params)
}
