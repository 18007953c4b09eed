package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures HMAC-signed bearer tokens.
type JWTConfig struct {
	// Secret is the HMAC key, usually a ${VAR} reference. Empty disables
	// JWT authentication.
	Secret string `yaml:"secret,omitempty"`

	// Issuer and Audience are checked when set.
	Issuer   string `yaml:"issuer,omitempty"`
	Audience string `yaml:"audience,omitempty"`

	// ScopeClaim holds scopes as a space-separated string or a list.
	// Default: scope
	ScopeClaim string `yaml:"scope_claim,omitempty"`

	// Leeway tolerates clock skew on exp and nbf.
	// Default: 30s
	Leeway time.Duration `yaml:"leeway,omitempty"`
}

// Enabled reports whether a secret is configured.
func (c JWTConfig) Enabled() bool { return c.Secret != "" }

// JWTAuthenticator validates bearer tokens in the Authorization header.
type JWTAuthenticator struct {
	config JWTConfig
	parser *jwt.Parser
}

// NewJWTAuthenticator creates a JWT authenticator. Tokens must be signed
// with HS256, HS384 or HS512 and must carry exp.
func NewJWTAuthenticator(config JWTConfig) (*JWTAuthenticator, error) {
	if !config.Enabled() {
		return nil, fmt.Errorf("%w: jwt secret is empty", ErrInvalidConfig)
	}
	if config.ScopeClaim == "" {
		config.ScopeClaim = "scope"
	}
	if config.Leeway == 0 {
		config.Leeway = 30 * time.Second
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(config.Leeway),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}
	return &JWTAuthenticator{config: config, parser: jwt.NewParser(opts...)}, nil
}

// Name returns "jwt".
func (a *JWTAuthenticator) Name() string { return string(MethodJWT) }

// Supports reports whether Authorization carries a bearer token.
func (a *JWTAuthenticator) Supports(h http.Header) bool {
	_, ok := bearer(h)
	return ok
}

// Authenticate verifies the token and maps sub and the scope claim onto an
// Identity.
func (a *JWTAuthenticator) Authenticate(_ context.Context, h http.Header) (*Identity, error) {
	raw, ok := bearer(h)
	if !ok {
		return nil, ErrMissingCredentials
	}

	claims := jwt.MapClaims{}
	_, err := a.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(a.config.Secret), nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, ErrTokenMalformed
	default:
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidCredentials)
	}
	id := &Identity{
		Principal: sub,
		Method:    MethodJWT,
		Scopes:    scopesClaim(claims[a.config.ScopeClaim]),
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}

func bearer(h http.Header) (string, bool) {
	v, ok := strings.CutPrefix(h.Get("Authorization"), "Bearer ")
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func scopesClaim(v any) []string {
	switch v := v.(type) {
	case string:
		return strings.Fields(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s, ok := s.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

var _ Authenticator = (*JWTAuthenticator)(nil)
