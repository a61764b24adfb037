package dbid

import (
	"unicode"
	"unicode/utf8"

	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	whitespaceToken int = iota
	objectOpenToken
	objectCloseToken
	arrayOpenToken
	arrayCloseToken
	assignToken
	keywordToken
	valueToken
)

var whitespaceMatcher = parsly.NewToken(whitespaceToken, "Whitespace", matcher.NewWhiteSpace())
var objectOpenMatcher = parsly.NewToken(objectOpenToken, "(", matcher.NewByte('('))
var objectCloseMatcher = parsly.NewToken(objectCloseToken, ")", matcher.NewByte(')'))
var arrayOpenMatcher = parsly.NewToken(arrayOpenToken, "[", matcher.NewByte('['))
var arrayCloseMatcher = parsly.NewToken(arrayCloseToken, "]", matcher.NewByte(']'))
var assignMatcher = parsly.NewToken(assignToken, "=", matcher.NewByte('='))
var keywordMatcher = parsly.NewToken(keywordToken, "Keyword", &keyword{})
var valueMatcher = parsly.NewToken(valueToken, "Value", &quoted{})

// keyword matches a run of letters, digits, '.', '_' and '-'.
type keyword struct{}

func (k *keyword) Match(cursor *parsly.Cursor) int {
	input := cursor.Input[cursor.Pos:]
	matched := 0
	for matched < len(input) {
		b := input[matched]
		if b < utf8.RuneSelf {
			if !isKeywordByte(b) {
				break
			}
			matched++
			continue
		}
		r, size := utf8.DecodeRune(input[matched:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		matched += size
	}
	return matched
}

func isKeywordByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '.', b == '_', b == '-':
		return true
	}
	return false
}

// quoted matches a double-quoted value. The format has no escapes: the
// value ends at the next double quote.
type quoted struct{}

func (q *quoted) Match(cursor *parsly.Cursor) int {
	input := cursor.Input[cursor.Pos:]
	if len(input) == 0 || input[0] != '"' {
		return 0
	}
	for i := 1; i < len(input); i++ {
		if input[i] == '"' {
			return i + 1
		}
	}
	return 0
}
