package scan

// BackgroundIssue lists the distinct background-integrity problems found on
// one line of a graphics source.
type BackgroundIssue struct {
	File   string   `json:"file"`
	Line   int      `json:"line"`
	Issues []string `json:"issues"`
}

// BackgroundIssues is the side list produced by graphics scanning.
type BackgroundIssues []BackgroundIssue

// Filter drops the issues listed in ignored. A line is kept as long as at
// least one of its issues is not ignored; the kept entry still lists every
// issue of the line.
func (b BackgroundIssues) Filter(ignored []string) BackgroundIssues {
	if len(ignored) == 0 {
		return b
	}
	skip := make(map[string]struct{}, len(ignored))
	for _, issue := range ignored {
		skip[issue] = struct{}{}
	}
	var result BackgroundIssues
	for _, entry := range b {
		for _, issue := range entry.Issues {
			if _, ok := skip[issue]; !ok {
				result = append(result, entry)
				break
			}
		}
	}
	return result
}

// Count returns the number of individual issues.
func (b BackgroundIssues) Count() int {
	n := 0
	for _, entry := range b {
		n += len(entry.Issues)
	}
	return n
}
