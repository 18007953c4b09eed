package auth

import (
	"context"
	"net/http"
)

// Authenticator validates the credential carried in request headers.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Authenticate should honor cancellation/deadlines.
// - Errors: a rejected credential is an error wrapping ErrInvalidCredentials,
//   ErrTokenExpired or ErrTokenMalformed. Other errors are internal failures.
type Authenticator interface {
	// Name identifies the authenticator in logs.
	Name() string

	// Supports reports whether h carries this authenticator's credential.
	Supports(h http.Header) bool

	// Authenticate validates the credential and returns the identity.
	Authenticate(ctx context.Context, h http.Header) (*Identity, error)
}

// Rejected reports whether err is a credential rejection rather than an
// internal failure.
func Rejected(err error) bool {
	return isAny(err, ErrMissingCredentials, ErrInvalidCredentials, ErrTokenExpired, ErrTokenMalformed)
}
