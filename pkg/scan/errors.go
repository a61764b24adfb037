package scan

import (
	"errors"
	"fmt"
)

// ErrMalformedSource is wrapped by every fatal graphics source defect.
var ErrMalformedSource = errors.New("malformed source")

// SourceError locates a fatal defect in a scanned file.
type SourceError struct {
	File string
	Line int
	Msg  string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// Unwrap returns ErrMalformedSource.
func (e *SourceError) Unwrap() error {
	return ErrMalformedSource
}
