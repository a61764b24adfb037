package scan

import "strings"

// stripComments removes every '*' comment up to, but not including, the
// end of its line.
func stripComments(content string) string {
	if strings.IndexByte(content, '*') < 0 {
		return content
	}
	var sb strings.Builder
	sb.Grow(len(content))
	for i := 0; i < len(content); {
		c := content[i]
		if c != '*' {
			sb.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(content[i:], '\n')
		if end < 0 {
			break
		}
		i += end
	}
	return sb.String()
}

// neutralizeQuotes empties every '"' or '\” quoted run while keeping the
// quotes and the newlines it contained, so byte offsets still map to the
// original line numbers. It returns the offset of an unterminated quote,
// or -1.
func neutralizeQuotes(content string) (string, int) {
	if strings.IndexAny(content, `"'`) < 0 {
		return content, -1
	}
	var sb strings.Builder
	sb.Grow(len(content))
	for i := 0; i < len(content); i++ {
		c := content[i]
		sb.WriteByte(c)
		if c != '"' && c != '\'' {
			continue
		}
		end := strings.IndexByte(content[i+1:], c)
		if end < 0 {
			return "", i
		}
		quoted := content[i+1 : i+1+end]
		sb.WriteString(strings.Repeat("\n", strings.Count(quoted, "\n")))
		sb.WriteByte(c)
		i += end + 1
	}
	return sb.String(), -1
}

// upperASCII folds ASCII letters to upper case and leaves every other byte
// untouched, so offsets in the result match offsets in s.
func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func indexFrom(s, substr string, from int) int {
	if from > len(s) {
		return -1
	}
	i := strings.Index(s[from:], substr)
	if i < 0 {
		return -1
	}
	return from + i
}

func lineAt(content string, pos int) int {
	return 1 + strings.Count(content[:pos], "\n")
}

// dedupe collects distinct values in first-seen order.
type dedupe struct {
	seen  map[string]int
	order []string
}

func newDedupe() *dedupe {
	return &dedupe{seen: make(map[string]int)}
}

// add records v and returns its position in first-seen order.
func (d *dedupe) add(v string) int {
	if i, ok := d.seen[v]; ok {
		return i
	}
	d.seen[v] = len(d.order)
	d.order = append(d.order, v)
	return len(d.order) - 1
}
