package scan

import (
	"sort"
	"strings"

	"github.com/pointaudit/pointaudit/pkg/point"
)

const (
	backgroundKeyword = "BACKGROUND"
	macroKeyword      = "Macro"
	// placeholderTag marks an unassigned reference in graphics sources.
	placeholderTag = "________"
)

// backgroundTerminators end a background section, whichever comes first.
var backgroundTerminators = []string{"FOREGROUND", "TRIGGER", "MACRO_TRIGGER", "KEYBOARD"}

// GraphicsResult is the outcome of scanning graphics sources.
type GraphicsResult struct {
	Batches    []point.Batch
	Background BackgroundIssues
}

// ScanGraphics extracts every `\TAG\` reference of a graphics source file
// and reports tag definitions and macro invocations placed inside the
// background section. References starting with '$' and the placeholder tag
// are ignored.
func ScanGraphics(name, text string) (*GraphicsResult, error) {
	stripped := stripComments(text)
	content, unterminated := neutralizeQuotes(stripped)
	if unterminated >= 0 {
		return nil, &SourceError{File: name, Line: lineAt(stripped, unterminated), Msg: "quote is not closed"}
	}

	bgBegin, bgEnd := backgroundSpan(content)
	inBackground := func(pos int) bool {
		return bgBegin >= 0 && pos > bgBegin && pos < bgEnd
	}
	issues := make(map[int]*dedupe)
	addIssue := func(pos int, issue string) {
		line := lineAt(content, pos)
		d, ok := issues[line]
		if !ok {
			d = newDedupe()
			issues[line] = d
		}
		d.add(issue)
	}

	if bgBegin >= 0 {
		for pos := indexFrom(content, macroKeyword, bgBegin); pos >= 0 && pos < bgEnd; pos = indexFrom(content, macroKeyword, pos+1) {
			if number := macroNumber(content[pos+len(macroKeyword):]); number != "" {
				addIssue(pos, macroKeyword+" "+number)
			}
		}
	}

	tags := newDedupe()
	for pos := strings.IndexByte(content, '\\'); pos >= 0; {
		end := indexFrom(content, `\`, pos+1)
		if end < 0 {
			return nil, &SourceError{File: name, Line: lineAt(content, pos), Msg: "tag reference is not closed"}
		}
		tag := strings.TrimSpace(content[pos+1 : end])
		if strings.IndexFunc(tag, isSpace) >= 0 {
			return nil, &SourceError{File: name, Line: lineAt(content, pos), Msg: "tag " + strings.Join(strings.Fields(tag), " ") + " has whitespaces"}
		}
		if tag != "" && !strings.HasPrefix(tag, "$") && tag != placeholderTag {
			tags.add(tag)
			if inBackground(pos) {
				addIssue(pos, `Definition \`+tag+`\`)
			}
		}
		pos = indexFrom(content, `\`, end+1)
	}

	result := &GraphicsResult{Batches: make([]point.Batch, 0, len(tags.order))}
	for _, tag := range tags.order {
		result.Batches = append(result.Batches, point.Batch{point.KKS: tag, point.AppearInFiles: name})
	}
	lines := make([]int, 0, len(issues))
	for line := range issues {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	for _, line := range lines {
		result.Background = append(result.Background, BackgroundIssue{File: name, Line: line, Issues: issues[line].order})
	}
	return result, nil
}

// backgroundSpan returns the offsets of the case-insensitive BACKGROUND
// keyword and of the first section keyword following it, or -1 when the
// source has no background section.
func backgroundSpan(content string) (int, int) {
	upper := upperASCII(content)
	begin := strings.Index(upper, backgroundKeyword)
	if begin < 0 {
		return -1, len(content)
	}
	end := len(content)
	for _, keyword := range backgroundTerminators {
		if pos := indexFrom(upper, keyword, begin); pos >= 0 && pos < end {
			end = pos
		}
	}
	return begin, end
}

// macroNumber returns N when s starts with whitespace, digits N and another
// whitespace. The number must follow the keyword directly: an occurrence
// such as "Macro call 9" or "MacroName" is not an invocation, and no later
// number is borrowed for it.
func macroNumber(s string) string {
	i := 0
	for i < len(s) && isSpace(rune(s[i])) {
		i++
	}
	if i == 0 {
		return ""
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start || i == len(s) || !isSpace(rune(s[i])) {
		return ""
	}
	return s[start:i]
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
