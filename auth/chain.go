package auth

import (
	"context"
	"errors"
	"net/http"
)

// Chain authenticates with the first authenticator that supports the
// request. A request no authenticator supports fails with
// ErrMissingCredentials.
type Chain []Authenticator

// Name returns "chain".
func (c Chain) Name() string { return "chain" }

// Supports reports whether any authenticator supports h.
func (c Chain) Supports(h http.Header) bool {
	for _, a := range c {
		if a.Supports(h) {
			return true
		}
	}
	return false
}

// Authenticate delegates to the first supporting authenticator. Once one
// claims the request its verdict is final.
func (c Chain) Authenticate(ctx context.Context, h http.Header) (*Identity, error) {
	for _, a := range c {
		if a.Supports(h) {
			return a.Authenticate(ctx, h)
		}
	}
	return nil, ErrMissingCredentials
}

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

var _ Authenticator = Chain(nil)
