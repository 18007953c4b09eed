package cache

import (
	"container/list"
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryCache is a bounded in-memory cache with per-entry TTL and LRU
// eviction once MaxEntries is exceeded.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front is most recently used
	policy     Policy
	maxEntries int
	stats      Stats
	now        func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

type cacheEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache with the given policy.
func NewMemoryCache(policy Policy) *MemoryCache {
	if policy.MaxEntries <= 0 {
		policy.MaxEntries = 1000
	}
	if policy.SweepInterval <= 0 {
		policy.SweepInterval = 10 * time.Minute
	}
	return &MemoryCache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		policy:     policy,
		maxEntries: policy.MaxEntries,
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

// Policy returns the policy the cache was created with.
func (c *MemoryCache) Policy() Policy {
	return c.policy
}

// Get returns a copy of a live entry, or (nil, false) on a miss or expiry.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	entry := el.Value.(*cacheEntry)
	if !c.now().Before(entry.expiresAt) {
		c.removeLocked(el)
		c.stats.Expirations++
		c.stats.Misses++
		return nil, false
	}

	c.order.MoveToFront(el)
	c.stats.Hits++
	return slices.Clone(entry.value), true
}

// Set stores a copy of value for ttl. A ttl of zero or less stores nothing.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	// TTL=0 means don't cache
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Sets++
	expiresAt := c.now().Add(ttl)
	value = slices.Clone(value)

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return nil
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	})

	for c.order.Len() > c.maxEntries {
		c.removeLocked(c.order.Back())
		c.stats.Evictions++
	}

	return nil
}

// Delete removes a value from the cache. Idempotent - no error on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.removeLocked(el)
	}
	return nil
}

// DeletePrefix removes entries whose key starts with keyPrefix. An empty
// keyPrefix removes nothing.
func (c *MemoryCache) DeletePrefix(_ context.Context, keyPrefix string) int {
	if keyPrefix == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, el := range c.entries {
		if strings.HasPrefix(key, keyPrefix) {
			c.removeLocked(el)
			n++
		}
	}
	return n
}

// FlushAll removes every entry. Statistics are kept.
func (c *MemoryCache) FlushAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Len returns the number of entries, including expired ones not yet swept.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes expired entries and returns how many were removed.
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*cacheEntry).expiresAt) {
			c.removeLocked(el)
			removed++
		}
		el = prev
	}
	c.stats.Expirations += int64(removed)
	return removed
}

// Start launches the background sweeper. It is safe to call more than once.
func (c *MemoryCache) Start() {
	c.startOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(c.policy.SweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-c.done:
					return
				case <-ticker.C:
					c.Sweep()
				}
			}
		}()
	})
}

// Close stops the background sweeper. Idempotent.
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Stats returns a snapshot of cache statistics.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = len(c.entries)
	s.MaxEntries = c.maxEntries
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// ResetStats zeroes the counters.
func (c *MemoryCache) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = Stats{}
}

func (c *MemoryCache) removeLocked(el *list.Element) {
	delete(c.entries, el.Value.(*cacheEntry).key)
	c.order.Remove(el)
}

// Ensure MemoryCache implements Cache
var _ Cache = (*MemoryCache)(nil)
