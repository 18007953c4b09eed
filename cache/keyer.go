package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// CacheVersion is embedded in every key so that a change in the canonical
// form or response shape invalidates previously computed keys.
const CacheVersion = "v1"

// Keyer generates deterministic cache keys from operation parameters.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Totality: Key never fails.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key from an operation prefix and its parameters.
	Key(prefix string, params any) string
}

// KeyerConfig configures a KeyGenerator.
type KeyerConfig struct {
	// Version is the key version segment.
	// Default: CacheVersion
	Version string `yaml:"version"`

	// MaxPrefixes caps the prefix registry after each trim.
	// Default: 50
	MaxPrefixes int `yaml:"max_prefixes"`

	// PrefixTrimInterval is how often the prefix registry is trimmed.
	// Default: 5 minutes
	PrefixTrimInterval time.Duration `yaml:"prefix_trim_interval"`

	// MaxTrackedKeys caps the key-to-parameters map used for collision detection.
	// Default: 1000
	MaxTrackedKeys int `yaml:"max_tracked_keys"`

	// MaxObservations is the number of distinct parameter strings kept per
	// colliding key.
	// Default: 5
	MaxObservations int `yaml:"max_observations"`

	// OnCollision is called, outside any lock, whenever a key is observed with
	// a parameter serialization it has not been seen with before.
	OnCollision func(record CollisionRecord) `yaml:"-"`
}

// KeyGenerator generates SHA-256 based cache keys and tracks collisions.
type KeyGenerator struct {
	version    string
	prefixes   *prefixRegistry
	collisions *collisionTracker
	trimEvery  time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

// NewKeyGenerator creates a key generator. Call Start to run background
// trimming of the prefix registry and Close to stop it.
func NewKeyGenerator(config KeyerConfig) *KeyGenerator {
	if config.Version == "" {
		config.Version = CacheVersion
	}
	if config.MaxPrefixes <= 0 {
		config.MaxPrefixes = 50
	}
	if config.PrefixTrimInterval <= 0 {
		config.PrefixTrimInterval = 5 * time.Minute
	}
	if config.MaxTrackedKeys <= 0 {
		config.MaxTrackedKeys = 1000
	}
	if config.MaxObservations <= 0 {
		config.MaxObservations = 5
	}

	return &KeyGenerator{
		version:    config.Version,
		prefixes:   newPrefixRegistry(config.MaxPrefixes),
		collisions: newCollisionTracker(config.MaxTrackedKeys, config.MaxObservations, config.OnCollision),
		trimEvery:  config.PrefixTrimInterval,
		done:       make(chan struct{}),
	}
}

// Key generates a deterministic cache key.
// Format: <version>-<prefix>:<hash>
// where hash is the full hex-encoded SHA-256 of Canonical(params).
func (g *KeyGenerator) Key(prefix string, params any) string {
	canonical := Canonical(params)
	sum := sha256.Sum256([]byte(canonical))
	key := KeyPrefix(g.version, prefix) + hex.EncodeToString(sum[:])

	g.prefixes.touch(prefix)
	g.collisions.observe(key, canonical)

	return key
}

// KeyPrefix returns the leading part of every key Key generates for prefix.
func (g *KeyGenerator) KeyPrefix(prefix string) string {
	return KeyPrefix(g.version, prefix)
}

// Start launches the background prefix registry trimmer. It is safe to call
// more than once.
func (g *KeyGenerator) Start() {
	g.startOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(g.trimEvery)
			defer ticker.Stop()
			for {
				select {
				case <-g.done:
					return
				case <-ticker.C:
					g.prefixes.trim()
				}
			}
		}()
	})
}

// Close stops background trimming. Idempotent.
func (g *KeyGenerator) Close() {
	g.stopOnce.Do(func() { close(g.done) })
}

// Stats returns a snapshot of key generation diagnostics.
func (g *KeyGenerator) Stats() KeyStats {
	collisions, tracked := g.collisions.counts()
	return KeyStats{
		Collisions:  collisions,
		TrackedKeys: tracked,
		Prefixes:    g.prefixes.list(),
	}
}

// Collisions returns the keys observed with more than one distinct parameter
// serialization.
func (g *KeyGenerator) Collisions() []CollisionRecord {
	return g.collisions.records()
}

// Reset clears collision tracking and the prefix registry.
func (g *KeyGenerator) Reset() {
	g.collisions.reset()
	g.prefixes.reset()
}

// Ensure KeyGenerator implements Keyer
var _ Keyer = (*KeyGenerator)(nil)
