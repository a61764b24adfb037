package commands

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pointaudit/pointaudit/pkg/stores"
	"github.com/pointaudit/pointaudit/pkg/validation"
	"github.com/spf13/cobra"
)

// validateOutput is the JSON form of a validation run.
type validateOutput struct {
	Run         stores.Run               `json:"run"`
	Rules       []stores.RuleResult      `json:"rules"`
	Diagnostics []stores.Diagnostic      `json:"diagnostics"`
	Severities  []stores.FieldSeverity   `json:"severities"`
	Background  []stores.BackgroundIssue `json:"background,omitempty"`
}

func newValidateCommand() *cobra.Command {
	var (
		inputs  inputFlags
		rules   []string
		save    bool
		dbPath  string
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Ingest the unit exports and run every rule",
		Long: `Ingest the configured exports and check every point.

The sequence is: parse DBID, merge its points, scan graphics sources,
logic sheets and the historian configuration, merge, then run the whole
rule catalogue. A malformed or inconsistent input aborts the run.`,
		Example: `  # Validate the inputs of ./pointaudit.yaml
  pointaudit validate

  # Validate explicit inputs and show two rules only
  pointaudit validate --dbid DBID.imp --graphics ./src --rules SCALE_ERRORS,LIMITS_ERRORS

  # Save the run to the report database
  pointaudit validate --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := parseRules(rules)
			if err != nil {
				return err
			}
			a, err := newApp(cmd, &inputs)
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()

			var db *stores.SQLiteStore
			if save {
				if db, err = a.openStore(ctx, dbPath); err != nil {
					return err
				}
				defer db.Close()
			}

			s, err := a.newSession()
			if err != nil {
				return err
			}
			started := time.Now()
			report, loadErr := s.Load(ctx, a.cfg.IngestInputs())
			if db != nil {
				if err := a.saveRun(ctx, db, s, started, report, loadErr); err != nil {
					a.logger.Error().Err(err).Msg("Failed to save run")
				}
			}
			if loadErr != nil {
				return loadErr
			}

			shown := *report
			shown.Background = report.Background.Filter(a.cfg.Rules.Background.IgnoredIssues)
			rec, err := stores.NewRunRecord(&shown, s.Engine().Diagnostics())
			if err != nil {
				return err
			}
			if len(selected) > 0 {
				rec = onlyRules(rec, selected)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, validateOutput{
					Run:         rec.Run,
					Rules:       rec.Rules,
					Diagnostics: rec.Diagnostics,
					Severities:  rec.Severities,
					Background:  rec.Background,
				})
			}
			fmt.Fprintf(out, "Run %s: %d points in %s\n\n", rec.Run.ID, rec.Run.Points, rec.Run.Duration.Round(time.Millisecond))
			if err := printRuleResults(out, rec.Rules); err != nil {
				return err
			}
			if !summary {
				printDiagnostics(out, rec.Diagnostics, rec.Severities)
			}
			if n := len(rec.Background); n > 0 {
				fmt.Fprintf(out, "\n%d background issue line(s); see 'pointaudit background'\n", n)
			}
			return nil
		},
	}

	inputs.register(cmd)
	cmd.Flags().StringSliceVar(&rules, "rules", nil, "only report these rules")
	cmd.Flags().BoolVar(&save, "save", false, "save the run to the report database")
	cmd.Flags().StringVar(&dbPath, "db", "", "report database (overrides report.database)")
	cmd.Flags().BoolVar(&summary, "summary", false, "print per-rule counts only")

	return cmd
}

func parseRules(names []string) ([]string, error) {
	var result []string
	for _, name := range names {
		id, ok := validation.ParseRuleID(strings.ToUpper(strings.TrimSpace(name)))
		if !ok {
			return nil, fmt.Errorf("unknown rule %q (see 'pointaudit rules')", name)
		}
		result = append(result, id.String())
	}
	return result, nil
}

func onlyRules(rec *stores.RunRecord, rules []string) *stores.RunRecord {
	keep := func(rule string) bool { return slices.Contains(rules, rule) }
	filtered := &stores.RunRecord{Run: rec.Run, Background: rec.Background}
	for _, r := range rec.Rules {
		if keep(r.Rule) {
			filtered.Rules = append(filtered.Rules, r)
		}
	}
	for _, d := range rec.Diagnostics {
		if keep(d.Rule) {
			filtered.Diagnostics = append(filtered.Diagnostics, d)
		}
	}
	for _, fs := range rec.Severities {
		if keep(fs.Rule) {
			filtered.Severities = append(filtered.Severities, fs)
		}
	}
	return filtered
}
