package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonwraymond/codescout/observe"
)

// Config selects how API callers authenticate.
type Config struct {
	// APIKeys are accepted in APIKeyHeader.
	APIKeys []APIKey `yaml:"api_keys,omitempty"`

	// APIKeyHeader names the key header.
	// Default: X-API-Key
	APIKeyHeader string `yaml:"api_key_header,omitempty"`

	// JWT enables bearer tokens when its secret is set.
	JWT JWTConfig `yaml:"jwt"`

	// AnonymousScopes are granted to requests without a credential. With
	// no authenticator configured they default to every scope; otherwise to
	// none.
	AnonymousScopes []string `yaml:"anonymous_scopes,omitempty"`
}

// Enabled reports whether any authenticator is configured.
func (c Config) Enabled() bool {
	return len(c.APIKeys) > 0 || c.JWT.Enabled()
}

// Validate checks keys and scopes without building authenticators.
func (c Config) Validate() error {
	errs := make([]error, 0, len(c.APIKeys))
	for _, k := range c.APIKeys {
		if err := k.validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, s := range c.AnonymousScopes {
		if !validScope(s) {
			errs = append(errs, fmt.Errorf("%w: unknown anonymous scope %q", ErrInvalidConfig, s))
		}
	}
	if c.JWT.Leeway < 0 {
		errs = append(errs, fmt.Errorf("%w: jwt leeway is negative", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// Guard authenticates requests and enforces route scopes.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: rejected credentials answer 401, missing scopes 403, internal
//   failures 500. The body is {"error": ..., "kind": ...}.
type Guard struct {
	authn     Authenticator
	anonymous *Identity
	logger    observe.Logger
}

// NewGuard builds the authenticators config describes. logger may be nil.
func NewGuard(config Config, logger observe.Logger) (*Guard, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = observe.NopLogger()
	}

	var chain Chain
	if len(config.APIKeys) > 0 {
		a, err := NewAPIKeyAuthenticator(config.APIKeyHeader, config.APIKeys)
		if err != nil {
			return nil, err
		}
		chain = append(chain, a)
	}
	if config.JWT.Enabled() {
		a, err := NewJWTAuthenticator(config.JWT)
		if err != nil {
			return nil, err
		}
		chain = append(chain, a)
	}

	anon := config.AnonymousScopes
	if anon == nil && len(chain) == 0 {
		anon = []string{ScopeAll}
	}
	return &Guard{authn: chain, anonymous: AnonymousIdentity(anon), logger: logger}, nil
}

// Identify returns the caller's identity. Requests without a credential get
// the anonymous identity.
func (g *Guard) Identify(r *http.Request) (*Identity, error) {
	if !g.authn.Supports(r.Header) {
		return g.anonymous, nil
	}
	return g.authn.Authenticate(r.Context(), r.Header)
}

// Require admits requests whose identity holds scope and attaches the
// identity to the request context.
func (g *Guard) Require(scope string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Identify(r)
		switch {
		case err == nil:
		case Rejected(err):
			g.logger.Warn(r.Context(), "api credential rejected",
				observe.Field{Key: "path", Value: r.URL.Path},
				observe.Field{Key: "error", Value: err.Error()},
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="codescout"`)
			deny(w, http.StatusUnauthorized, err, "unauthenticated")
			return
		default:
			g.logger.Error(r.Context(), "authentication failed", observe.Field{Key: "error", Value: err.Error()})
			deny(w, http.StatusInternalServerError, err, "unknown")
			return
		}

		if !id.Allows(scope) {
			if id.IsAnonymous() {
				w.Header().Set("WWW-Authenticate", `Bearer realm="codescout"`)
				deny(w, http.StatusUnauthorized, ErrMissingCredentials, "unauthenticated")
				return
			}
			deny(w, http.StatusForbidden, fmt.Errorf("%w: %s lacks scope %q", ErrForbidden, id.Principal, scope), "forbidden")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func deny(w http.ResponseWriter, code int, err error, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error(), "kind": kind})
}
