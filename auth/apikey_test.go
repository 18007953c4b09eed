package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func header(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func TestAPIKeyAuthenticator(t *testing.T) {
	a, err := NewAPIKeyAuthenticator("", []APIKey{
		{ID: "ci", Key: "ci-key", Scopes: []string{ScopeSearch}},
		{ID: "ops", Hash: strings.ToUpper(HashAPIKey("ops-key")), Principal: "ops-team", Scopes: []string{ScopeAll}},
		{ID: "old", Key: "old-key", Scopes: []string{ScopeFetch}, ExpiresAt: time.Now().Add(-time.Hour)},
	})
	if err != nil {
		t.Fatalf("NewAPIKeyAuthenticator() error = %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name      string
		key       string
		principal string
		want      error
	}{
		{"plain key", "ci-key", "ci", nil},
		{"surrounding space", "  ci-key ", "ci", nil},
		{"stored hash", "ops-key", "ops-team", nil},
		{"unknown", "nope", "", ErrInvalidCredentials},
		{"expired", "old-key", "", ErrTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := header(DefaultAPIKeyHeader, tt.key)
			if !a.Supports(h) {
				t.Fatal("Supports() = false")
			}
			id, err := a.Authenticate(ctx, h)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Authenticate() error = %v, want %v", err, tt.want)
			}
			if tt.want == nil && (id.Principal != tt.principal || id.Method != MethodAPIKey) {
				t.Errorf("identity = %+v", id)
			}
		})
	}

	if a.Supports(header("Authorization", "Bearer x")) {
		t.Error("Supports() = true without the key header")
	}
}

func TestAPIKeyAuthenticator_CustomHeader(t *testing.T) {
	a, err := NewAPIKeyAuthenticator("X-Codescout-Key", []APIKey{{ID: "ci", Key: "k", Scopes: []string{ScopeTree}}})
	if err != nil {
		t.Fatal(err)
	}
	if a.Supports(header(DefaultAPIKeyHeader, "k")) || !a.Supports(header("X-Codescout-Key", "k")) {
		t.Error("custom header not honored")
	}
}

func TestAPIKeyValidation(t *testing.T) {
	tests := []struct {
		name string
		keys []APIKey
		want string
	}{
		{"missing id", []APIKey{{Key: "k", Scopes: []string{ScopeAll}}}, "without id"},
		{"key and hash", []APIKey{{ID: "a", Key: "k", Hash: HashAPIKey("k"), Scopes: []string{ScopeAll}}}, "exactly one"},
		{"neither", []APIKey{{ID: "a", Scopes: []string{ScopeAll}}}, "exactly one"},
		{"short hash", []APIKey{{ID: "a", Hash: "abc", Scopes: []string{ScopeAll}}}, "SHA-256"},
		{"unknown scope", []APIKey{{ID: "a", Key: "k", Scopes: []string{"delete"}}}, `unknown scope "delete"`},
		{"duplicate", []APIKey{
			{ID: "a", Key: "k", Scopes: []string{ScopeAll}},
			{ID: "b", Hash: HashAPIKey("k"), Scopes: []string{ScopeAll}},
		}, "duplicates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAPIKeyAuthenticator("", tt.keys)
			if !errors.Is(err, ErrInvalidConfig) || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want ErrInvalidConfig mentioning %q", err, tt.want)
			}
		})
	}
}

func TestIdentity_Allows(t *testing.T) {
	id := &Identity{Scopes: []string{ScopeSearch}}
	if !id.Allows(ScopeSearch) || id.Allows(ScopeFetch) {
		t.Errorf("scoped identity = %+v", id)
	}
	if !(&Identity{Scopes: []string{ScopeAll}}).Allows(ScopeAdmin) {
		t.Error("wildcard does not allow admin")
	}
	var none *Identity
	if none.Allows(ScopeSearch) || !none.IsAnonymous() {
		t.Error("nil identity")
	}
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	if IdentityFromContext(ctx) != nil || PrincipalFromContext(ctx) != "" {
		t.Error("empty context carries an identity")
	}
	ctx = WithIdentity(ctx, &Identity{Principal: "ci"})
	if PrincipalFromContext(ctx) != "ci" {
		t.Errorf("principal = %q", PrincipalFromContext(ctx))
	}
}
