package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pointaudit/pointaudit/pkg/stores"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printRuleResults(w io.Writer, results []stores.RuleResult) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "RULE\tFLAGGED\tDURATION")
	for _, r := range results {
		flagged := fmt.Sprint(r.Flagged)
		if r.Skipped {
			flagged = "skipped"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Rule, flagged, r.Duration)
	}
	return tw.Flush()
}

// printDiagnostics lists flagged tags rule by rule, with their explanation
// lines and annotated fields.
func printDiagnostics(w io.Writer, diags []stores.Diagnostic, severities []stores.FieldSeverity) {
	type key struct{ rule, kks string }
	fields := make(map[key][]string)
	for _, fs := range severities {
		k := key{fs.Rule, fs.KKS}
		fields[k] = append(fields[k], fs.Field+"="+fs.Severity)
	}
	rule := ""
	for _, d := range diags {
		if d.Rule != rule {
			rule = d.Rule
			fmt.Fprintf(w, "\n%s\n", rule)
		}
		fmt.Fprintf(w, "  %s", d.KKS)
		if f := fields[key{d.Rule, d.KKS}]; len(f) > 0 {
			fmt.Fprintf(w, " [%s]", strings.Join(f, " "))
		}
		fmt.Fprintln(w)
		for _, info := range d.Info {
			for _, line := range strings.Split(info, "\n") {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}
}

func printBackground(w io.Writer, issues []stores.BackgroundIssue) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "FILE\tLINE\tISSUES")
	for _, b := range issues {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", b.File, b.Line, strings.Join(b.Issues, ", "))
	}
	return tw.Flush()
}
