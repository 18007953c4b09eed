package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// BenchmarkMemoryCache_Get_Hit measures cache hit performance.
func BenchmarkMemoryCache_Get_Hit(b *testing.B) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()
	_ = c.Set(ctx, "key", []byte("value"), time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, "key")
	}
}

// BenchmarkMemoryCache_Set_Evicting measures writes at capacity.
func BenchmarkMemoryCache_Set_Evicting(b *testing.B) {
	policy := DefaultPolicy()
	policy.MaxEntries = 100
	c := NewMemoryCache(policy)
	ctx := context.Background()
	value := []byte("value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Set(ctx, fmt.Sprintf("key-%d", i), value, time.Hour)
	}
}

// BenchmarkCanonical measures serialization of a typical search request.
func BenchmarkCanonical(b *testing.B) {
	params := map[string]any{
		"query":    []any{"useState", "useEffect"},
		"owner":    "facebook",
		"repo":     "react",
		"language": "typescript",
		"limit":    30,
		"filters":  map[string]any{"path": "packages/", "extension": "ts"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Canonical(params)
	}
}

// BenchmarkKeyGenerator_Key measures key generation including collision tracking.
func BenchmarkKeyGenerator_Key(b *testing.B) {
	keyer := NewKeyGenerator(KeyerConfig{})
	params := map[string]any{"query": "useState", "owner": "facebook", "repo": "react"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = keyer.Key(PrefixCodeSearch, params)
	}
}

// BenchmarkMiddleware_Hit measures the cached path end to end.
func BenchmarkMiddleware_Hit(b *testing.B) {
	policy := DefaultPolicy()
	mw := NewMiddleware(NewMemoryCache(policy), NewKeyGenerator(KeyerConfig{}), policy)
	ctx := context.Background()
	exec := func(context.Context) ([]byte, error) { return []byte("x"), nil }
	_, _, _ = mw.Execute(ctx, PrefixCodeSearch, "q", exec)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = mw.Execute(ctx, PrefixCodeSearch, "q", exec)
	}
}
