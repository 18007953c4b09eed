package secret

import (
	"context"
	"os"
	"strings"
)

// DefaultTokenEnv lists the variables TokenChain reads, in order.
var DefaultTokenEnv = []string{"GITHUB_TOKEN", "GH_TOKEN"}

// Token is a resolved credential and where it came from.
type Token struct {
	Value  string
	Source string // "env:<VAR>", "gh", or "ref"
}

// TokenChain finds a GitHub token: environment variables first, then the
// GitHub CLI, then a stored secret reference.
type TokenChain struct {
	// EnvVars are read in order.
	// Default: DefaultTokenEnv
	EnvVars []string

	// CLI asks a command for the token; nil skips the step. Failures are
	// not fatal since the CLI is often missing or logged out.
	CLI Provider

	// Host is the reference passed to CLI.
	// Default: github.com
	Host string

	// Ref is a value resolved through Resolver as the last step, for example
	// "secretref:env:CODESCOUT_TOKEN". Empty skips the step.
	Ref string

	// Resolver resolves Ref.
	// Default: the "env" and "gh" providers of NewDefaultRegistry
	Resolver *Resolver

	lookup func(string) (string, bool)
}

// Token returns the first token found, or ErrNoToken.
func (c *TokenChain) Token(ctx context.Context) (Token, error) {
	lookup := c.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	vars := c.EnvVars
	if len(vars) == 0 {
		vars = DefaultTokenEnv
	}

	for _, name := range vars {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			return Token{Value: strings.TrimSpace(v), Source: "env:" + name}, nil
		}
	}

	if c.CLI != nil {
		host := c.Host
		if host == "" {
			host = "github.com"
		}
		if v, err := c.CLI.Resolve(ctx, host); err == nil && v != "" {
			return Token{Value: v, Source: c.CLI.Name()}, nil
		}
		if err := ctx.Err(); err != nil {
			return Token{}, err
		}
	}

	if c.Ref != "" {
		r := c.Resolver
		if r == nil {
			var err error
			if r, err = NewResolverFromRegistry(NewDefaultRegistry(), "env", "gh"); err != nil {
				return Token{}, err
			}
		}
		v, err := r.ResolveValue(ctx, c.Ref)
		if err != nil {
			return Token{}, err
		}
		if v != "" {
			return Token{Value: v, Source: "ref"}, nil
		}
	}

	return Token{}, ErrNoToken
}
