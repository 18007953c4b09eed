package config

import "errors"

var (
	// ErrRead is returned when the configuration file cannot be read.
	ErrRead = errors.New("config: cannot read file")

	// ErrParse is returned for malformed YAML or unknown fields.
	ErrParse = errors.New("config: cannot parse file")

	// ErrInvalid is wrapped by every Validate failure.
	ErrInvalid = errors.New("config: invalid configuration")
)
