package ingest

import (
	"errors"
	"fmt"

	"github.com/pointaudit/pointaudit/pkg/dbid"
	"github.com/pointaudit/pointaudit/pkg/scan"
	"github.com/pointaudit/pointaudit/pkg/store"
	"github.com/pointaudit/pointaudit/pkg/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// ErrorClass classifies why an ingestion failed. Every class aborts the
// ingestion; none is retried.
type ErrorClass string

const (
	// ErrorClassMalformed indicates an input that violates its grammar:
	// a DBID syntax error or a broken graphics source.
	ErrorClassMalformed ErrorClass = "malformed"

	// ErrorClassStructural indicates a DBID that parses but does not have
	// the expected unit/drop/module layout.
	ErrorClassStructural ErrorClass = "structural"

	// ErrorClassIO indicates an input that could not be read or an output
	// that could not be written.
	ErrorClassIO ErrorClass = "io"

	// ErrorClassConfig indicates unusable settings.
	ErrorClassConfig ErrorClass = "config"
)

// Error codes.
const (
	ErrCodeDbidSyntax     = "DBID_SYNTAX"
	ErrCodeSourceSyntax   = "SOURCE_SYNTAX"
	ErrCodeDbidStructure  = "DBID_STRUCTURE"
	ErrCodeNoInputs       = "NO_INPUTS"
	ErrCodeReadFailed     = "READ_FAILED"
	ErrCodeWriteFailed    = "WRITE_FAILED"
	ErrCodeInvalidSetting = "INVALID_SETTING"
	ErrCodeNoDbid         = "NO_DBID"
)

// IngestError is a classified ingestion failure.
type IngestError struct {
	Class ErrorClass `json:"class"`

	Message string `json:"message"`

	Code string `json:"code,omitempty"`

	// Source is the input the failure relates to.
	Source string `json:"source,omitempty"`

	// Line is the 1-based line of the defect, when known.
	Line int `json:"line,omitempty"`

	Err error `json:"-"`
}

// Error implements the error interface.
func (e *IngestError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Source != "" {
		if e.Line > 0 {
			msg += fmt.Sprintf(" (source=%s, line=%d)", e.Source, e.Line)
		} else {
			msg += fmt.Sprintf(" (source=%s)", e.Source)
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *IngestError) Unwrap() error {
	return e.Err
}

// Is matches another IngestError with the same class and code.
func (e *IngestError) Is(target error) bool {
	t, ok := target.(*IngestError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

func newError(class ErrorClass, code, message string, err error) *IngestError {
	return &IngestError{Class: class, Code: code, Message: message, Err: err}
}

func (e *IngestError) withSource(source string) *IngestError {
	e.Source = source
	return e
}

// classify wraps an error from one of the ingestion stages. A nil error
// stays nil.
func classify(source string, err error) error {
	if err == nil {
		return nil
	}
	var ie *IngestError
	if errors.As(err, &ie) {
		return err
	}
	var syntax *dbid.SyntaxError
	var srcErr *scan.SourceError
	switch {
	case errors.As(err, &syntax):
		e := newError(ErrorClassMalformed, ErrCodeDbidSyntax, "DBID does not parse", err).withSource(source)
		e.Line = syntax.Line
		return e
	case errors.As(err, &srcErr):
		e := newError(ErrorClassMalformed, ErrCodeSourceSyntax, "graphics source is malformed", err).withSource(srcErr.File)
		e.Line = srcErr.Line
		return e
	case errors.Is(err, dbid.ErrMalformedInput), errors.Is(err, scan.ErrMalformedSource):
		return newError(ErrorClassMalformed, ErrCodeSourceSyntax, "input is malformed", err).withSource(source)
	case errors.Is(err, store.ErrStructure):
		return newError(ErrorClassStructural, ErrCodeDbidStructure, "DBID layout is inconsistent", err).withSource(source)
	default:
		return newError(ErrorClassIO, ErrCodeReadFailed, "failed to read input", err).withSource(source)
	}
}

func classOf(err error) ErrorClass {
	var e *IngestError
	if errors.As(err, &e) {
		return e.Class
	}
	return ""
}

// IsMalformed reports whether err is a grammar violation in an input.
func IsMalformed(err error) bool {
	return classOf(err) == ErrorClassMalformed
}

// IsStructural reports whether err is a DBID layout violation.
func IsStructural(err error) bool {
	return classOf(err) == ErrorClassStructural
}

// IsFatal reports whether err must abort an ingestion. Every classified
// error is fatal; a nil error is not.
func IsFatal(err error) bool {
	return err != nil && classOf(err) != ""
}

// Class returns the class of err, or "" when err is not an IngestError.
func Class(err error) ErrorClass {
	return classOf(err)
}

// recordFailure marks span as failed and tags it with the error class.
func recordFailure(span trace.Span, err error) {
	telemetry.RecordError(span, err)
	if class := Class(err); class != "" {
		span.SetAttributes(telemetry.AttrErrorKind.String(string(class)))
	}
}
