package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pointaudit/pointaudit/pkg/dbid"
	"github.com/pointaudit/pointaudit/pkg/scan"
	"github.com/pointaudit/pointaudit/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		class  ErrorClass
		code   string
		source string
		line   int
	}{
		{
			name:   "dbid syntax",
			err:    fmt.Errorf("parse: %w", &dbid.SyntaxError{Line: 7, Msg: "unterminated quote"}),
			class:  ErrorClassMalformed,
			code:   ErrCodeDbidSyntax,
			source: "DBID.imp",
			line:   7,
		},
		{
			name:   "graphics source",
			err:    &scan.SourceError{File: "a.src", Line: 3, Msg: "tag contains whitespace"},
			class:  ErrorClassMalformed,
			code:   ErrCodeSourceSyntax,
			source: "a.src",
			line:   3,
		},
		{
			name:   "structure",
			err:    &store.StructureError{Drop: "DROP1", Msg: "no Unit object found"},
			class:  ErrorClassStructural,
			code:   ErrCodeDbidStructure,
			source: "DBID.imp",
		},
		{
			name:   "read failure",
			err:    context.Canceled,
			class:  ErrorClassIO,
			code:   ErrCodeReadFailed,
			source: "DBID.imp",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("DBID.imp", tt.err)

			var ie *IngestError
			assert.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.class, ie.Class)
			assert.Equal(t, tt.code, ie.Code)
			assert.Equal(t, tt.source, ie.Source)
			assert.Equal(t, tt.line, ie.Line)
			assert.True(t, errors.Is(err, tt.err), "cause is kept")
			assert.True(t, IsFatal(err))
		})
	}
}

func TestClassifyKeepsClassifiedErrors(t *testing.T) {
	assert.NoError(t, classify("x", nil))

	original := newError(ErrorClassConfig, ErrCodeNoInputs, "no inputs configured", nil)
	wrapped := fmt.Errorf("wrapped: %w", original)
	assert.Same(t, wrapped, classify("x", wrapped))
}

func TestErrorPredicates(t *testing.T) {
	malformed := newError(ErrorClassMalformed, ErrCodeDbidSyntax, "DBID does not parse", nil).withSource("DBID.imp")
	malformed.Line = 2
	assert.True(t, IsMalformed(malformed))
	assert.False(t, IsStructural(malformed))
	assert.Equal(t, "[malformed] DBID does not parse (source=DBID.imp, line=2)", malformed.Error())

	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.Equal(t, ErrorClass(""), Class(errors.New("plain")))
}

func TestRecordFailure(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("ingest")

	_, span := tracer.Start(context.Background(), "ingest.dbid")
	recordFailure(span, classify("DBID.imp", &dbid.SyntaxError{Line: 2, Msg: "unexpected token"}))
	span.End()

	_, plain := tracer.Start(context.Background(), "ingest.scan")
	recordFailure(plain, errors.New("unclassified"))
	plain.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String("error.class", string(ErrorClassMalformed)))
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	for _, kv := range ended[1].Attributes() {
		assert.NotEqual(t, attribute.Key("error.class"), kv.Key)
	}
}
