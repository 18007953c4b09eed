package query

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned by Check when a filter produced no constraint.
var ErrEmptyQuery = errors.New("query: empty search query")

// Check returns ErrEmptyQuery when q carries no search constraint.
func Check(q string) error {
	if strings.TrimSpace(q) == "" {
		return ErrEmptyQuery
	}
	return nil
}
