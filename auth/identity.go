package auth

import (
	"slices"
	"time"
)

// Method records how an identity was established.
type Method string

const (
	MethodAPIKey    Method = "api_key"
	MethodJWT       Method = "jwt"
	MethodAnonymous Method = "anonymous"
)

// Scopes granted to identities. ScopeAll grants every scope.
const (
	ScopeSearch = "search"
	ScopeFetch  = "fetch"
	ScopeTree   = "tree"
	ScopeAdmin  = "admin"
	ScopeAll    = "*"
)

// KnownScopes lists the scopes a route may require.
var KnownScopes = []string{ScopeSearch, ScopeFetch, ScopeTree, ScopeAdmin}

// Identity is an authenticated caller of the API.
type Identity struct {
	Principal string
	Method    Method
	Scopes    []string

	// KeyID names the API key used, empty for other methods.
	KeyID string

	// ExpiresAt is zero when the credential never expires.
	ExpiresAt time.Time
}

// Allows reports whether the identity holds scope.
func (id *Identity) Allows(scope string) bool {
	if id == nil {
		return false
	}
	return slices.Contains(id.Scopes, ScopeAll) || slices.Contains(id.Scopes, scope)
}

// IsAnonymous reports whether no credential was presented.
func (id *Identity) IsAnonymous() bool {
	return id == nil || id.Method == MethodAnonymous
}

// AnonymousIdentity returns the identity used when no credential is
// presented.
func AnonymousIdentity(scopes []string) *Identity {
	return &Identity{
		Principal: "anonymous",
		Method:    MethodAnonymous,
		Scopes:    slices.Clone(scopes),
	}
}

func validScope(s string) bool {
	return s == ScopeAll || slices.Contains(KnownScopes, s)
}
