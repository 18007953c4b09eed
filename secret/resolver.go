package secret

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// RefPrefix starts every secret reference.
const RefPrefix = "secretref:"

// Resolver turns configuration values that carry secret references into
// the secrets themselves.
//
// A reference is "secretref:<provider>:<ref>". It may be the whole value or
// a whitespace-delimited word inside it ("Bearer secretref:gh:github.com").
//
// Contract:
// - Concurrency: safe for concurrent use once built.
// - Errors: an unknown provider returns ErrProviderNotRegistered; a strict
//   resolver returns ErrEmptySecret for an empty result.
type Resolver struct {
	providers map[string]Provider
	strict    bool
}

// NewResolver creates a resolver over providers, keyed by Name. Nil
// providers are skipped; a later provider replaces an earlier one of the
// same name.
func NewResolver(strict bool, providers ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider, len(providers)), strict: strict}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// NewResolverFromRegistry creates a strict resolver with one provider per
// name, each built by reg with a nil configuration.
func NewResolverFromRegistry(reg *Registry, names ...string) (*Resolver, error) {
	providers := make([]Provider, 0, len(names))
	for _, name := range names {
		p, err := reg.Create(name, nil)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return NewResolver(true, providers...), nil
}

// ResolveValue expands value with ExpandEnvStrict, then replaces every
// secret reference in it. A nil Resolver only expands.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil || r == nil || !strings.Contains(expanded, RefPrefix) {
		return expanded, err
	}

	var b strings.Builder
	rest := expanded
	for {
		start := strings.Index(rest, RefPrefix)
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexFunc(rest[start:], unicode.IsSpace)
		if end < 0 {
			end = len(rest)
		} else {
			end += start
		}

		provider, ref, ok := ParseSecretRef(rest[start:end])
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrInvalidRef, rest[start:end])
		}
		secret, err := r.resolve(ctx, provider, ref)
		if err != nil {
			return "", err
		}
		b.WriteString(rest[:start])
		b.WriteString(secret)
		rest = rest[end:]
	}
}

// ParseSecretRef splits "secretref:<provider>:<ref>". Both parts must be
// non-empty.
func ParseSecretRef(value string) (provider, ref string, ok bool) {
	body, found := strings.CutPrefix(value, RefPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(body, ":")
	if !found || strings.TrimSpace(provider) == "" || strings.TrimSpace(ref) == "" {
		return "", "", false
	}
	return provider, ref, true
}

func (r *Resolver) resolve(ctx context.Context, name, ref string) (string, error) {
	p, ok := r.providers[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrProviderNotRegistered, name)
	}
	v, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("secret: provider %s: %w", name, err)
	}
	if r.strict && v == "" {
		return "", fmt.Errorf("%w: provider %q", ErrEmptySecret, name)
	}
	return v, nil
}
