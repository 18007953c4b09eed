package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/codescout/auth"
	"github.com/jonwraymond/codescout/cache"
	"github.com/jonwraymond/codescout/content"
	"github.com/jonwraymond/codescout/githubapi"
	"github.com/jonwraymond/codescout/observe"
	"github.com/jonwraymond/codescout/secret"
)

// Config is the complete codescout configuration.
type Config struct {
	GitHub  githubapi.Config `yaml:"github"`
	Cache   CacheConfig      `yaml:"cache"`
	Content content.Config   `yaml:"content"`
	Observe observe.Config   `yaml:"observe"`
	Token   TokenConfig      `yaml:"token"`
	Health  HealthConfig     `yaml:"health"`

	// Auth guards the HTTP API started by serve.
	Auth auth.Config `yaml:"auth"`
}

// CacheConfig holds the response cache policy and the key generator settings.
type CacheConfig struct {
	cache.Policy `yaml:",inline"`

	// Keys configures key generation and collision tracking.
	Keys cache.KeyerConfig `yaml:"keys"`
}

// TokenConfig describes where the GitHub token comes from.
type TokenConfig struct {
	// Env lists the variables read first, in order.
	// Default: secret.DefaultTokenEnv
	Env []string `yaml:"env"`

	// CLI asks the GitHub CLI when no variable is set.
	// Default: true
	CLI bool `yaml:"cli"`

	// Host is passed to the CLI.
	// Default: github.com
	Host string `yaml:"host"`

	// Ref is resolved last, for example "secretref:env:CODESCOUT_TOKEN".
	Ref string `yaml:"ref"`
}

// HealthConfig configures the health endpoint and checker thresholds.
type HealthConfig struct {
	// Listen is the serve-health address.
	// Default: 127.0.0.1:8081
	Listen string `yaml:"listen"`

	// MinHitRate is the cache hit rate below which the cache is degraded.
	// Default: 0.2
	MinHitRate float64 `yaml:"min_hit_rate"`

	// LowRemaining is the fraction of rate-limit quota that triggers a warning.
	// Default: 0.1
	LowRemaining float64 `yaml:"low_remaining"`

	// MaxHeapBytes is the heap budget for the memory check. Zero uses the
	// memory obtained from the OS.
	MaxHeapBytes uint64 `yaml:"max_heap_bytes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		GitHub: githubapi.Config{
			BaseURL:   "https://api.github.com/",
			UserAgent: "codescout",
			Timeout:   30 * time.Second,
		},
		Cache: CacheConfig{
			Policy: cache.DefaultPolicy(),
			Keys:   cache.KeyerConfig{Version: cache.CacheVersion},
		},
		Content: content.DefaultConfig(),
		Observe: observe.Config{
			ServiceName: "codescout",
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
		Token: TokenConfig{
			Env:  append([]string(nil), secret.DefaultTokenEnv...),
			CLI:  true,
			Host: "github.com",
		},
		Health: HealthConfig{
			Listen:       "127.0.0.1:8081",
			MinHitRate:   0.2,
			LowRemaining: 0.1,
		},
	}
}

// Load reads path, expands ${VAR} references strictly and decodes the result
// over Default. Unknown fields are rejected. The result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML data the way Load does.
func Parse(data []byte) (*Config, error) {
	expanded, err := secret.ExpandEnvStrict(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.GitHub.BaseURL != "" {
		u, err := url.Parse(c.GitHub.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			bad("github.base_url %q is not an absolute URL", c.GitHub.BaseURL)
		}
	}
	for name, d := range map[string]time.Duration{
		"github.timeout":               c.GitHub.Timeout,
		"github.search_max_wait":       c.GitHub.SearchMaxWait,
		"github.max_retry_delay":       c.GitHub.MaxRetryDelay,
		"github.secondary_retry_delay": c.GitHub.SecondaryRetryDelay,
		"github.breaker_reset":         c.GitHub.BreakerReset,
		"cache.default_ttl":            c.Cache.DefaultTTL,
		"cache.max_ttl":                c.Cache.MaxTTL,
		"cache.sweep_interval":         c.Cache.SweepInterval,
	} {
		if d < 0 {
			bad("%s must not be negative", name)
		}
	}
	if c.GitHub.SearchRate < 0 {
		bad("github.search_rate must not be negative")
	}
	if c.GitHub.MaxClients < 0 || c.GitHub.MaxConcurrent < 0 || c.GitHub.SearchBurst < 0 {
		bad("github client limits must not be negative")
	}

	if c.Cache.MaxEntries < 0 {
		bad("cache.max_entries must not be negative")
	}
	if c.Cache.MaxTTL > 0 && c.Cache.DefaultTTL > c.Cache.MaxTTL {
		bad("cache.default_ttl %s exceeds cache.max_ttl %s", c.Cache.DefaultTTL, c.Cache.MaxTTL)
	}
	for prefix, ttl := range c.Cache.PrefixTTLs {
		if ttl < 0 {
			bad("cache.prefix_ttls[%s] must not be negative", prefix)
		}
	}
	if strings.ContainsAny(c.Cache.Keys.Version, ":- ") {
		bad("cache.keys.version %q must not contain ':', '-' or spaces", c.Cache.Keys.Version)
	}

	if c.Token.Ref != "" {
		if _, _, ok := secret.ParseSecretRef(c.Token.Ref); !ok {
			bad("token.ref must be a secretref:<provider>:<ref> reference")
		}
	}

	if c.Health.MinHitRate < 0 || c.Health.MinHitRate >= 1 {
		bad("health.min_hit_rate must be in [0, 1)")
	}
	if c.Health.LowRemaining < 0 || c.Health.LowRemaining >= 1 {
		bad("health.low_remaining must be in [0, 1)")
	}

	if err := c.Observe.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: observe: %w", ErrInvalid, err))
	}
	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}

	return errors.Join(errs...)
}

// TokenChain builds the credential lookup described by the token section.
func (c *Config) TokenChain() *secret.TokenChain {
	chain := &secret.TokenChain{
		EnvVars: c.Token.Env,
		Host:    c.Token.Host,
		Ref:     c.Token.Ref,
	}
	if c.Token.CLI {
		chain.CLI = secret.NewGHProvider()
	}
	return chain
}

// Redacted returns a copy with API keys and the JWT secret masked, for
// printing.
func (c *Config) Redacted() *Config {
	out := *c
	out.Auth.APIKeys = make([]auth.APIKey, len(c.Auth.APIKeys))
	for i, k := range c.Auth.APIKeys {
		if k.Key != "" {
			k.Key = redactedValue
		}
		out.Auth.APIKeys[i] = k
	}
	if out.Auth.JWT.Secret != "" {
		out.Auth.JWT.Secret = redactedValue
	}
	return &out
}

const redactedValue = "[REDACTED]"
