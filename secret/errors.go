package secret

import "errors"

// Sentinel errors for secret resolution.
var (
	// ErrMissingEnv is returned when a ${VAR} reference names an unset variable.
	ErrMissingEnv = errors.New("secret: missing required environment variables")

	// ErrProviderNotRegistered is returned for an unknown provider name.
	ErrProviderNotRegistered = errors.New("secret: provider is not registered")

	// ErrInvalidRegistration is returned for an empty name or nil factory.
	ErrInvalidRegistration = errors.New("secret: invalid provider registration")

	// ErrAlreadyRegistered is returned when a provider name is reused.
	ErrAlreadyRegistered = errors.New("secret: provider already registered")

	// ErrEmptySecret is returned by strict resolvers and providers when a
	// secret resolves to the empty string.
	ErrEmptySecret = errors.New("secret: empty value")

	// ErrInvalidRef is returned for a malformed secret reference.
	ErrInvalidRef = errors.New("secret: invalid reference")

	// ErrNoToken is returned when no step of a TokenChain yields a token.
	ErrNoToken = errors.New("secret: no GitHub token found")
)
