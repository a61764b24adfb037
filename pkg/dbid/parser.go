package dbid

import (
	"bytes"
	"fmt"

	"github.com/viant/parsly"
)

// DefaultMaxDepth bounds object nesting accepted by Parse.
const DefaultMaxDepth = 256

// ProgressFunc receives a non-decreasing completion percentage.
type ProgressFunc func(percent int)

type options struct {
	maxDepth int
	progress ProgressFunc
}

// Option configures Parse.
type Option func(*options)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithProgress registers an advisory progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// Parse reads a DBID export. The first line is a format header and is
// skipped; the remainder is a sequence of top-level objects. Any grammar
// violation aborts the parse with an error wrapping ErrMalformedInput.
func Parse(text string, opts ...Option) (*Tree, error) {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	input := []byte(text)
	cursor := parsly.NewCursor("", input, 0)
	if newline := bytes.IndexByte(input, '\n'); newline >= 0 {
		cursor.Pos = newline + 1
	}
	p := &parser{cursor: cursor, tree: NewTree(), opts: o, lastPercent: -1}
	if err := p.parseDocument(); err != nil {
		return nil, err
	}
	p.report(100)
	return p.tree, nil
}

type parser struct {
	cursor      *parsly.Cursor
	tree        *Tree
	opts        options
	depth       int
	lastPercent int
}

func (p *parser) parseDocument() error {
	for {
		matched := p.cursor.MatchAfterOptional(whitespaceMatcher, objectOpenMatcher)
		switch matched.Code {
		case objectOpenToken:
			if err := p.parseObject(p.tree.Root()); err != nil {
				return err
			}
		case parsly.EOF:
			return nil
		default:
			return p.errorf("unexpected %s, expected '('", p.describeNext())
		}
	}
}

// parseObject reads the remainder of an object whose '(' was consumed.
func (p *parser) parseObject(parent NodeID) error {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.opts.maxDepth {
		return p.errorf("object nesting exceeds %d levels", p.opts.maxDepth)
	}
	_, typ, err := p.parseParameter()
	if err != nil {
		return err
	}
	_, name, err := p.parseParameter()
	if err != nil {
		return err
	}
	id := p.tree.AddObject(parent, typ, name)
	for {
		matched := p.cursor.MatchAfterOptional(whitespaceMatcher,
			objectCloseMatcher,
			arrayOpenMatcher,
			objectOpenMatcher,
		)
		switch matched.Code {
		case objectCloseToken:
			p.report(100 * p.cursor.Pos / p.cursor.InputSize)
			return nil
		case arrayOpenToken:
			if err := p.parseArray(id); err != nil {
				return err
			}
		case objectOpenToken:
			if err := p.parseObject(id); err != nil {
				return err
			}
		default:
			return p.errorf("unexpected %s, expected '(', '[' or ')'", p.describeNext())
		}
	}
}

// parseArray reads parameters up to the closing ']'.
func (p *parser) parseArray(owner NodeID) error {
	for {
		matched := p.cursor.MatchAfterOptional(whitespaceMatcher, arrayCloseMatcher)
		if matched.Code == arrayCloseToken {
			return nil
		}
		name, value, err := p.parseParameter()
		if err != nil {
			return err
		}
		p.tree.AddParam(owner, name, value)
	}
}

func (p *parser) parseParameter() (string, string, error) {
	matched := p.cursor.MatchAfterOptional(whitespaceMatcher, keywordMatcher)
	if matched.Code != keywordToken {
		return "", "", p.errorf("empty keyword before %s", p.describeNext())
	}
	name := matched.Text(p.cursor)
	matched = p.cursor.MatchAfterOptional(whitespaceMatcher, assignMatcher)
	if matched.Code != assignToken {
		return "", "", p.errorf("unexpected %s after %q, expected '='", p.describeNext(), name)
	}
	matched = p.cursor.MatchAfterOptional(whitespaceMatcher, valueMatcher)
	if matched.Code != valueToken {
		if pos := p.skipSpace(); pos < p.cursor.InputSize && p.cursor.Input[pos] == '"' {
			return "", "", p.errorf("unterminated quoted value for %q", name)
		}
		return "", "", p.errorf("unexpected %s after %q=, expected quoted value", p.describeNext(), name)
	}
	text := matched.Text(p.cursor)
	return name, text[1 : len(text)-1], nil
}

func (p *parser) skipSpace() int {
	pos := p.cursor.Pos
	for pos < p.cursor.InputSize {
		switch p.cursor.Input[pos] {
		case ' ', '\t', '\r', '\n', '\v', '\f':
			pos++
			continue
		}
		break
	}
	return pos
}

func (p *parser) describeNext() string {
	pos := p.skipSpace()
	if pos >= p.cursor.InputSize {
		return "end of input"
	}
	return fmt.Sprintf("%q", p.cursor.Input[pos])
}

func (p *parser) errorf(format string, args ...interface{}) error {
	offset := p.skipSpace()
	return &SyntaxError{
		Offset: offset,
		Line:   1 + bytes.Count(p.cursor.Input[:offset], []byte{'\n'}),
		Msg:    fmt.Sprintf(format, args...),
	}
}

func (p *parser) report(percent int) {
	if p.opts.progress == nil || percent <= p.lastPercent {
		return
	}
	p.lastPercent = percent
	p.opts.progress(percent)
}
