package cache

// Stats holds response cache counters.
type Stats struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Sets        int64   `json:"sets"`
	Evictions   int64   `json:"evictions"`
	Expirations int64   `json:"expirations"`
	Entries     int     `json:"entries"`
	MaxEntries  int     `json:"max_entries"`
	HitRate     float64 `json:"hit_rate"`
}

// KeyStats holds key generation diagnostics.
type KeyStats struct {
	Collisions  int64    `json:"collisions"`
	TrackedKeys int      `json:"tracked_keys"`
	Prefixes    []string `json:"prefixes"`
}
