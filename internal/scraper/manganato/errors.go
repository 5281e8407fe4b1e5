package manganato

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the source site returned a non-success status
// for the requested page.
var ErrNotFound = errors.New("page not found")

// ParseError indicates the page was fetched but is missing an expected
// element, which usually means the source site changed its markup.
// It is fatal for the affected item and not retryable without
// intervention.
type ParseError struct {
	URL   string
	Field string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not extract %s from %s", e.Field, e.URL)
}
