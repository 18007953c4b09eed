package cache

import "time"

// Operation prefixes with dedicated TTLs. Volatile data (issues, pull
// requests) expires sooner than stable data (repository layout, packages).
const (
	PrefixCodeSearch      = "code-search"
	PrefixRepoSearch      = "repo-search"
	PrefixPullRequest     = "pr-search"
	PrefixIssueSearch     = "issue-search"
	PrefixCommitSearch    = "commit-search"
	PrefixFileContent     = "file-content"
	PrefixRepoStructure   = "repo-structure"
	PrefixPackageMetadata = "package-metadata"
)

// Policy configures caching behavior.
type Policy struct {
	// DefaultTTL is the TTL for prefixes without an entry in PrefixTTLs.
	// If zero, caching is disabled by default.
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration `yaml:"max_ttl"`

	// PrefixTTLs maps an operation prefix to its TTL.
	PrefixTTLs map[string]time.Duration `yaml:"prefix_ttls"`

	// MaxEntries caps the number of cached responses.
	// Default: 1000
	MaxEntries int `yaml:"max_entries"`

	// SweepInterval is how often expired entries are removed in the background.
	// Default: 10 minutes
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// DefaultPrefixTTLs returns the built-in prefix TTL table.
func DefaultPrefixTTLs() map[string]time.Duration {
	return map[string]time.Duration{
		PrefixCodeSearch:      time.Hour,
		PrefixRepoSearch:      2 * time.Hour,
		PrefixPullRequest:     30 * time.Minute,
		PrefixIssueSearch:     30 * time.Minute,
		PrefixCommitSearch:    time.Hour,
		PrefixFileContent:     time.Hour,
		PrefixRepoStructure:   2 * time.Hour,
		PrefixPackageMetadata: 4 * time.Hour,
	}
}

// DefaultPolicy returns the default caching policy.
// DefaultTTL: 24 hours, MaxTTL: 24 hours, MaxEntries: 1000
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL:    24 * time.Hour,
		MaxTTL:        24 * time.Hour,
		PrefixTTLs:    DefaultPrefixTTLs(),
		MaxEntries:    1000,
		SweepInterval: 10 * time.Minute,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{MaxEntries: 1}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// TTLFor returns the TTL for an operation prefix, falling back to DefaultTTL.
func (p Policy) TTLFor(prefix string) time.Duration {
	if !p.ShouldCache() {
		return 0
	}
	return p.EffectiveTTL(p.PrefixTTLs[prefix])
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	// Use default if no override (or negative override)
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	// Clamp to MaxTTL if set
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}
