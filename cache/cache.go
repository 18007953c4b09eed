package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength bounds stored keys. Generated keys are far shorter.
const MaxKeyLength = 512

var (
	ErrNilCache   = errors.New("cache: cache is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Cache stores serialized GitHub responses by generated key.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Get never errors; it returns (nil, false) on a miss or an
//   expired entry.
// - Ownership: Set copies value; callers may reuse the slice.
type Cache interface {
	// Get returns a live entry.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value for ttl. A ttl of zero or less stores nothing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes one entry. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every entry whose key starts with keyPrefix and
	// returns how many were removed. See KeyPrefix.
	DeletePrefix(ctx context.Context, keyPrefix string) int

	// FlushAll removes every entry.
	FlushAll()
}

// KeyPrefix is the leading part shared by every key generated for prefix
// under version: "<version>-<prefix>:".
func KeyPrefix(version, prefix string) string {
	return version + "-" + prefix + ":"
}

// SplitKey breaks a generated key into its version, prefix and hash.
func SplitKey(key string) (version, prefix, hash string, ok bool) {
	head, hash, ok := strings.Cut(key, ":")
	if !ok {
		return "", "", "", false
	}
	version, prefix, ok = strings.Cut(head, "-")
	if !ok || version == "" || prefix == "" || hash == "" {
		return "", "", "", false
	}
	return version, prefix, hash, true
}

// ValidateKey rejects empty, oversized and multi-line keys.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return ErrInvalidKey
	case len(key) > MaxKeyLength:
		return ErrKeyTooLong
	case strings.ContainsAny(key, "\n\r"):
		return ErrInvalidKey
	}
	return nil
}
