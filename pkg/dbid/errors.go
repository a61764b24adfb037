package dbid

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is wrapped by every grammar violation reported by Parse.
var ErrMalformedInput = errors.New("malformed DBID input")

// SyntaxError describes where a DBID text violates the grammar.
type SyntaxError struct {
	Offset int
	Line   int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("dbid: line %d (offset %d): %s", e.Line, e.Offset, e.Msg)
}

// Unwrap returns ErrMalformedInput.
func (e *SyntaxError) Unwrap() error {
	return ErrMalformedInput
}
