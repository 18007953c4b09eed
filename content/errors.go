package content

import "errors"

// Sentinel errors for minification. They never escape Processor; a failed
// minification sets ProcessedFragment.MinificationFailed instead.
var (
	// ErrUnterminated is returned when a block comment or multi-line string
	// never closes.
	ErrUnterminated = errors.New("content: unterminated comment or string")

	// ErrSyntax is returned when minified JavaScript no longer parses.
	ErrSyntax = errors.New("content: minified output failed syntax check")

	// ErrMalformed is returned when structured input (JSON, HTML) cannot be
	// tokenized.
	ErrMalformed = errors.New("content: malformed input")
)
