package research

import "errors"

// Request validation errors. They reach callers wrapped in a
// *githubapi.APIError of kind KindInvalidQuery.
var (
	// ErrUnknownKind is returned for a search kind outside the five entities.
	ErrUnknownKind = errors.New("research: unknown search kind")

	// ErrFilterType is returned when the filter does not match the kind.
	ErrFilterType = errors.New("research: filter type does not match search kind")

	// ErrUnknownMode is returned for an unsupported extraction mode.
	ErrUnknownMode = errors.New("research: unknown extraction mode")

	// ErrInvalidRange is returned for a line or byte range outside the file.
	ErrInvalidRange = errors.New("research: invalid range")

	// ErrInvalidPattern is returned for an empty or malformed pattern.
	ErrInvalidPattern = errors.New("research: invalid pattern")

	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("research: orchestrator is closed")
)
