package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultAPIKeyHeader carries API keys.
const DefaultAPIKeyHeader = "X-API-Key"

// APIKey is one configured key. Exactly one of Key and Hash is set; Key is
// hashed when the authenticator is built and never kept.
type APIKey struct {
	ID string `yaml:"id"`

	// Hash is the hex SHA-256 of the key. See HashAPIKey.
	Hash string `yaml:"hash,omitempty"`

	// Key is the plain key, usually a ${VAR} reference.
	Key string `yaml:"key,omitempty"`

	// Principal names the caller in logs.
	// Default: ID
	Principal string `yaml:"principal,omitempty"`

	Scopes []string `yaml:"scopes"`

	// ExpiresAt is zero for keys that never expire.
	ExpiresAt time.Time `yaml:"expires_at,omitempty"`
}

func (k APIKey) validate() error {
	switch {
	case k.ID == "":
		return fmt.Errorf("%w: api key without id", ErrInvalidConfig)
	case (k.Key == "") == (k.Hash == ""):
		return fmt.Errorf("%w: api key %q: set exactly one of key and hash", ErrInvalidConfig, k.ID)
	case k.Hash != "" && !isSHA256Hex(k.Hash):
		return fmt.Errorf("%w: api key %q: hash is not hex SHA-256", ErrInvalidConfig, k.ID)
	case len(k.Scopes) == 0:
		return fmt.Errorf("%w: api key %q has no scopes", ErrInvalidConfig, k.ID)
	}
	for _, s := range k.Scopes {
		if !validScope(s) {
			return fmt.Errorf("%w: api key %q: unknown scope %q", ErrInvalidConfig, k.ID, s)
		}
	}
	return nil
}

// APIKeyAuthenticator validates keys against a fixed set.
type APIKeyAuthenticator struct {
	header string
	keys   map[string]APIKey // by hash
}

// NewAPIKeyAuthenticator builds an authenticator over keys read from header.
// Default header: DefaultAPIKeyHeader
func NewAPIKeyAuthenticator(header string, keys []APIKey) (*APIKeyAuthenticator, error) {
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	a := &APIKeyAuthenticator{header: header, keys: make(map[string]APIKey, len(keys))}
	for _, k := range keys {
		if err := k.validate(); err != nil {
			return nil, err
		}
		hash := strings.ToLower(k.Hash)
		if k.Key != "" {
			hash = HashAPIKey(k.Key)
		}
		k.Key, k.Hash = "", hash
		if _, dup := a.keys[hash]; dup {
			return nil, fmt.Errorf("%w: api key %q duplicates another key", ErrInvalidConfig, k.ID)
		}
		a.keys[hash] = k
	}
	return a, nil
}

// Name returns "api_key".
func (a *APIKeyAuthenticator) Name() string { return string(MethodAPIKey) }

// Supports reports whether the key header is present.
func (a *APIKeyAuthenticator) Supports(h http.Header) bool {
	return h.Get(a.header) != ""
}

// Authenticate looks the key up by hash.
func (a *APIKeyAuthenticator) Authenticate(_ context.Context, h http.Header) (*Identity, error) {
	key := strings.TrimSpace(h.Get(a.header))
	if key == "" {
		return nil, ErrMissingCredentials
	}
	info, ok := a.keys[HashAPIKey(key)]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !info.ExpiresAt.IsZero() && time.Now().After(info.ExpiresAt) {
		return nil, fmt.Errorf("%w: api key %q", ErrTokenExpired, info.ID)
	}

	principal := info.Principal
	if principal == "" {
		principal = info.ID
	}
	return &Identity{
		Principal: principal,
		Method:    MethodAPIKey,
		Scopes:    info.Scopes,
		KeyID:     info.ID,
		ExpiresAt: info.ExpiresAt,
	}, nil
}

// HashAPIKey returns the hex SHA-256 of key, the form stored in APIKey.Hash.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func isSHA256Hex(s string) bool {
	b, err := hex.DecodeString(s)
	return err == nil && len(b) == sha256.Size
}

var _ Authenticator = (*APIKeyAuthenticator)(nil)
