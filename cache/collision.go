package cache

import (
	"container/list"
	"slices"
	"sync"
)

// CollisionRecord lists the distinct parameter serializations observed for a
// single cache key, most recent last.
type CollisionRecord struct {
	CacheKey        string   `json:"cache_key"`
	CanonicalParams []string `json:"canonical_params"`
}

type trackedKey struct {
	key        string
	canonicals []string
}

// collisionTracker remembers the canonical parameters behind recently
// generated keys in an LRU-bounded map.
type collisionTracker struct {
	mu          sync.Mutex
	items       map[string]*list.Element
	order       *list.List
	maxKeys     int
	maxObs      int
	collisions  int64
	onCollision func(CollisionRecord)
}

func newCollisionTracker(maxKeys, maxObs int, onCollision func(CollisionRecord)) *collisionTracker {
	return &collisionTracker{
		items:       make(map[string]*list.Element),
		order:       list.New(),
		maxKeys:     maxKeys,
		maxObs:      maxObs,
		onCollision: onCollision,
	}
}

func (t *collisionTracker) observe(key, canonical string) {
	var record *CollisionRecord

	t.mu.Lock()
	if el, ok := t.items[key]; ok {
		t.order.MoveToFront(el)
		tk := el.Value.(*trackedKey)
		if !slices.Contains(tk.canonicals, canonical) {
			t.collisions++
			tk.canonicals = append(tk.canonicals, canonical)
			if len(tk.canonicals) > t.maxObs {
				tk.canonicals = slices.Clone(tk.canonicals[len(tk.canonicals)-t.maxObs:])
			}
			record = &CollisionRecord{CacheKey: key, CanonicalParams: slices.Clone(tk.canonicals)}
		}
	} else {
		t.items[key] = t.order.PushFront(&trackedKey{key: key, canonicals: []string{canonical}})
		for t.order.Len() > t.maxKeys {
			oldest := t.order.Back()
			delete(t.items, oldest.Value.(*trackedKey).key)
			t.order.Remove(oldest)
		}
	}
	t.mu.Unlock()

	if record != nil && t.onCollision != nil {
		t.onCollision(*record)
	}
}

func (t *collisionTracker) counts() (collisions int64, tracked int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.collisions, len(t.items)
}

func (t *collisionTracker) records() []CollisionRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []CollisionRecord
	for el := t.order.Front(); el != nil; el = el.Next() {
		tk := el.Value.(*trackedKey)
		if len(tk.canonicals) > 1 {
			out = append(out, CollisionRecord{CacheKey: tk.key, CanonicalParams: slices.Clone(tk.canonicals)})
		}
	}
	return out
}

func (t *collisionTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = make(map[string]*list.Element)
	t.order.Init()
	t.collisions = 0
}
