// Package tle loads two-line element sets and answers "which element record
// is valid at time t" queries against the epoch-sorted collection.
package tle

import (
	"fmt"
	"time"
)

// Entry is a single two-line element record with its derived epoch.
type Entry struct {
	Line1 string
	Line2 string
	Epoch time.Time
}

// ParseError reports a malformed field in an element record. Element data
// with a bad epoch is unusable for record selection, so parsing fails rather
// than skipping.
type ParseError struct {
	Line int // 1-based line number in the input
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tle: line %d: %s: %v", e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("tle: line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }
