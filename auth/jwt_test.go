package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-hmac-secret"

func sign(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func unsigned(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestJWTAuthenticator(t *testing.T) {
	a, err := NewJWTAuthenticator(JWTConfig{Secret: testSecret, Issuer: "codescout", Audience: "api", Leeway: time.Second})
	if err != nil {
		t.Fatalf("NewJWTAuthenticator() error = %v", err)
	}
	now := time.Now()
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": "alice", "iss": "codescout", "aud": "api",
			"exp": now.Add(time.Hour).Unix(), "scope": "search fetch",
		}
	}
	with := func(k string, v any) jwt.MapClaims {
		c := valid()
		if v == nil {
			delete(c, k)
		} else {
			c[k] = v
		}
		return c
	}

	tests := []struct {
		name   string
		token  string
		want   error
		scopes int
	}{
		{"valid", sign(t, jwt.SigningMethodHS256, testSecret, valid()), nil, 2},
		{"scope list", sign(t, jwt.SigningMethodHS512, testSecret, with("scope", []any{"tree"})), nil, 1},
		{"expired", sign(t, jwt.SigningMethodHS256, testSecret, with("exp", now.Add(-time.Hour).Unix())), ErrTokenExpired, 0},
		{"no exp", sign(t, jwt.SigningMethodHS256, testSecret, with("exp", nil)), ErrInvalidCredentials, 0},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, "other", valid()), ErrInvalidCredentials, 0},
		{"wrong issuer", sign(t, jwt.SigningMethodHS256, testSecret, with("iss", "elsewhere")), ErrInvalidCredentials, 0},
		{"wrong audience", sign(t, jwt.SigningMethodHS256, testSecret, with("aud", "web")), ErrInvalidCredentials, 0},
		{"no subject", sign(t, jwt.SigningMethodHS256, testSecret, with("sub", nil)), ErrInvalidCredentials, 0},
		{"unsigned", unsigned(t, valid()), ErrInvalidCredentials, 0},
		{"garbage", "not.a.jwt", ErrTokenMalformed, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := header("Authorization", "Bearer "+tt.token)
			if !a.Supports(h) {
				t.Fatal("Supports() = false")
			}
			id, err := a.Authenticate(context.Background(), h)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Authenticate() error = %v, want %v", err, tt.want)
			}
			if tt.want == nil && (id.Principal != "alice" || len(id.Scopes) != tt.scopes || id.ExpiresAt.IsZero()) {
				t.Errorf("identity = %+v", id)
			}
		})
	}

	if a.Supports(header("Authorization", "Basic abc")) || a.Supports(header("Authorization", "Bearer ")) {
		t.Error("Supports() accepted a non-bearer header")
	}
}

func TestNewJWTAuthenticator_RequiresSecret(t *testing.T) {
	if _, err := NewJWTAuthenticator(JWTConfig{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}
