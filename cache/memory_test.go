package cache

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(policy Policy) (*MemoryCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(policy)
	c.now = clock.Now
	return c, clock
}

func TestMemoryCache_GetSetDelete(t *testing.T) {
	cache := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	val, ok := cache.Get(ctx, "nonexistent")
	if ok {
		t.Error("Get on empty cache should return ok=false")
	}
	if val != nil {
		t.Error("Get on empty cache should return nil value")
	}

	key := "test-key"
	value := []byte("test-value")
	if err := cache.Set(ctx, key, value, 5*time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := cache.Get(ctx, key)
	if !ok {
		t.Error("Get after Set should return ok=true")
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}

	if err := cache.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := cache.Get(ctx, key); ok {
		t.Error("Get after Delete should return ok=false")
	}

	// Delete is idempotent
	if err := cache.Delete(ctx, key); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
}

func TestMemoryCache_OwnsStoredBytes(t *testing.T) {
	cache := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	b := []byte("original")
	if err := cache.Set(ctx, "k", b, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	copy(b, "MUTATED!")

	got, _ := cache.Get(ctx, "k")
	if string(got) != "original" {
		t.Fatalf("after caller reuse, Get = %q", got)
	}
	copy(got, "MUTATED!")
	if again, _ := cache.Get(ctx, "k"); string(again) != "original" {
		t.Errorf("after reader mutation, Get = %q", again)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	cache, clock := newTestCache(DefaultPolicy())
	ctx := context.Background()

	_ = cache.Set(ctx, "k", []byte("v"), time.Minute)

	clock.Advance(59 * time.Second)
	if _, ok := cache.Get(ctx, "k"); !ok {
		t.Fatal("entry should be live before TTL elapses")
	}

	clock.Advance(time.Second)
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Fatal("entry should be expired once TTL elapses")
	}

	stats := cache.Stats()
	if stats.Expirations != 1 {
		t.Errorf("Expirations = %d, want 1", stats.Expirations)
	}
	if stats.Entries != 0 {
		t.Errorf("Entries = %d, want 0", stats.Entries)
	}
}

func TestMemoryCache_ZeroTTLNotStored(t *testing.T) {
	cache := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	_ = cache.Set(ctx, "k", []byte("v"), 0)
	_ = cache.Set(ctx, "k2", []byte("v"), -time.Second)

	if cache.Len() != 0 {
		t.Errorf("Len = %d, want 0", cache.Len())
	}
	if cache.Stats().Sets != 0 {
		t.Errorf("Sets = %d, want 0", cache.Stats().Sets)
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxEntries = 3
	cache := NewMemoryCache(policy)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		_ = cache.Set(ctx, k, []byte(k), time.Hour)
	}

	// Touch "a" so "b" becomes least recently used.
	cache.Get(ctx, "a")
	_ = cache.Set(ctx, "d", []byte("d"), time.Hour)

	if _, ok := cache.Get(ctx, "b"); ok {
		t.Error("least recently used entry should be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := cache.Get(ctx, k); !ok {
			t.Errorf("entry %q should survive eviction", k)
		}
	}

	stats := cache.Stats()
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
	if stats.Entries != 3 || stats.MaxEntries != 3 {
		t.Errorf("Entries/MaxEntries = %d/%d, want 3/3", stats.Entries, stats.MaxEntries)
	}
}

func TestMemoryCache_OverwriteRefreshesTTL(t *testing.T) {
	cache, clock := newTestCache(DefaultPolicy())
	ctx := context.Background()

	_ = cache.Set(ctx, "k", []byte("old"), time.Minute)
	clock.Advance(50 * time.Second)
	_ = cache.Set(ctx, "k", []byte("new"), time.Minute)
	clock.Advance(50 * time.Second)

	got, ok := cache.Get(ctx, "k")
	if !ok || string(got) != "new" {
		t.Errorf("Get = %q, %v; want new, true", got, ok)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
}

func TestMemoryCache_Sweep(t *testing.T) {
	cache, clock := newTestCache(DefaultPolicy())
	ctx := context.Background()

	_ = cache.Set(ctx, "short", []byte("1"), time.Minute)
	_ = cache.Set(ctx, "long", []byte("2"), time.Hour)

	clock.Advance(2 * time.Minute)
	if removed := cache.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
	if _, ok := cache.Get(ctx, "long"); !ok {
		t.Error("unexpired entry should survive sweep")
	}
}

func TestMemoryCache_BackgroundSweeper(t *testing.T) {
	policy := DefaultPolicy()
	policy.SweepInterval = time.Millisecond
	cache := NewMemoryCache(policy)
	defer cache.Close()

	_ = cache.Set(context.Background(), "k", []byte("v"), time.Nanosecond)
	cache.Start()

	deadline := time.Now().Add(time.Second)
	for cache.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if cache.Len() != 0 {
		t.Error("background sweeper should remove expired entry")
	}
}

func TestMemoryCache_FlushAll(t *testing.T) {
	cache := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_ = cache.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Hour)
	}
	cache.FlushAll()

	if cache.Len() != 0 {
		t.Errorf("Len after FlushAll = %d, want 0", cache.Len())
	}
	if _, ok := cache.Get(ctx, "k1"); ok {
		t.Error("Get after FlushAll should miss")
	}
	if cache.Stats().Sets != 10 {
		t.Errorf("FlushAll should keep counters, Sets = %d", cache.Stats().Sets)
	}
}

func TestMemoryCache_StatsHitRate(t *testing.T) {
	cache := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	if rate := cache.Stats().HitRate; rate != 0 {
		t.Errorf("HitRate on untouched cache = %v, want 0", rate)
	}

	_ = cache.Set(ctx, "k", []byte("v"), time.Hour)
	cache.Get(ctx, "k")
	cache.Get(ctx, "k")
	cache.Get(ctx, "k")
	cache.Get(ctx, "missing")

	stats := cache.Stats()
	if stats.Hits != 3 || stats.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d, want 3/1", stats.Hits, stats.Misses)
	}
	if stats.HitRate != 0.75 {
		t.Errorf("HitRate = %v, want 0.75", stats.HitRate)
	}

	cache.ResetStats()
	if s := cache.Stats(); s.Hits != 0 || s.Entries != 1 {
		t.Errorf("after ResetStats: Hits=%d Entries=%d", s.Hits, s.Entries)
	}
}

func TestMemoryCache_DefaultsApplied(t *testing.T) {
	cache := NewMemoryCache(Policy{})
	if cache.Stats().MaxEntries != 1000 {
		t.Errorf("MaxEntries default = %d, want 1000", cache.Stats().MaxEntries)
	}
	if cache.Policy().SweepInterval != 10*time.Minute {
		t.Errorf("SweepInterval default = %v", cache.Policy().SweepInterval)
	}
}

func TestMemoryCache_CloseIdempotent(t *testing.T) {
	cache := NewMemoryCache(DefaultPolicy())
	cache.Start()
	cache.Close()
	cache.Close()
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxEntries = 50
	cache := NewMemoryCache(policy)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d-%d", id, j%10)
				_ = cache.Set(ctx, key, []byte(key), time.Hour)
				if got, ok := cache.Get(ctx, key); ok && string(got) != key {
					t.Errorf("Get(%s) = %s", key, got)
				}
				if j%7 == 0 {
					_ = cache.Delete(ctx, key)
				}
			}
		}(i)
	}
	wg.Wait()

	if n := cache.Len(); n > 50 {
		t.Errorf("Len = %d, exceeds MaxEntries", n)
	}
}
