package cache

import (
	"sort"
	"sync"
	"time"
)

// prefixRegistry records which operation prefixes have generated keys. It is
// diagnostic only. touch never trims; trim runs from the KeyGenerator ticker.
type prefixRegistry struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
	max      int
}

func newPrefixRegistry(max int) *prefixRegistry {
	return &prefixRegistry{lastSeen: make(map[string]time.Time), max: max}
}

func (r *prefixRegistry) touch(prefix string) {
	r.mu.Lock()
	r.lastSeen[prefix] = time.Now()
	r.mu.Unlock()
}

// trim drops the least recently seen prefixes until at most max remain.
func (r *prefixRegistry) trim() {
	r.mu.Lock()
	defer r.mu.Unlock()

	excess := len(r.lastSeen) - r.max
	if excess <= 0 {
		return
	}

	type seen struct {
		prefix string
		at     time.Time
	}
	all := make([]seen, 0, len(r.lastSeen))
	for p, at := range r.lastSeen {
		all = append(all, seen{p, at})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })
	for _, s := range all[:excess] {
		delete(r.lastSeen, s.prefix)
	}
}

func (r *prefixRegistry) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.lastSeen))
	for p := range r.lastSeen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (r *prefixRegistry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSeen = make(map[string]time.Time)
}
