package commands

import (
	"fmt"
	"strings"

	"github.com/pointaudit/pointaudit/pkg/validation"
	"github.com/spf13/cobra"
)

type ruleOutput struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Gate        string   `json:"gate"`
	Description string   `json:"description"`
	Shown       []string `json:"shown"`
}

func newRulesCommand() *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the validation rules",
		Long: `List the rule catalogue with the sources each rule needs.

A rule runs only when its gate holds over the loaded inputs
(dbid, src, xml, ophxml).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rules []ruleOutput
			for _, r := range validation.Catalogue() {
				shown := make([]string, 0, len(r.Shown))
				for _, p := range r.Shown {
					shown = append(shown, p.String())
				}
				rules = append(rules, ruleOutput{
					ID:          r.ID.String(),
					Title:       r.Title,
					Gate:        r.GateText(),
					Description: r.Description,
					Shown:       shown,
				})
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, rules)
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "RULE\tGATE\tTITLE")
			for _, r := range rules {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Gate, r.Title)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if !details {
				return nil
			}
			for _, r := range rules {
				fmt.Fprintf(out, "\n%s\n", r.ID)
				for _, line := range strings.Split(r.Description, "\n") {
					fmt.Fprintf(out, "  %s\n", line)
				}
				fmt.Fprintf(out, "  fields: %s\n", strings.Join(r.Shown, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&details, "details", false, "print descriptions and shown fields")

	return cmd
}
