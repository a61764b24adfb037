package commands

import (
	"fmt"
	"time"

	"github.com/pointaudit/pointaudit/pkg/stores"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var (
		dbPath string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved validation runs",
		Long: `List the runs saved with 'pointaudit validate --save' or
'pointaudit watch --save', newest first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.close()
			db, err := a.openStore(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, runs)
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tPOINTS\tDURATION\tERROR")
			for _, r := range runs {
				msg := ""
				if r.Error != nil {
					msg = *r.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, r.Points, r.Duration, msg)
			}
			return tw.Flush()
		},
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "report database (overrides report.database)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of runs to skip")

	cmd.AddCommand(newHistoryShowCommand(&dbPath))
	cmd.AddCommand(newHistoryPruneCommand(&dbPath))

	return cmd
}

func newHistoryShowCommand(dbPath *string) *cobra.Command {
	var rule string

	cmd := &cobra.Command{
		Use:   "show <run-id|latest>",
		Short: "Show the diagnostics of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()
			db, err := a.openStore(ctx, *dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			var run *stores.Run
			if args[0] == "latest" {
				run, err = db.LatestRun(ctx)
			} else {
				run, err = db.GetRun(ctx, args[0])
			}
			if err != nil {
				return err
			}
			if rule != "" {
				names, err := parseRules([]string{rule})
				if err != nil {
					return err
				}
				rule = names[0]
			}

			rules, err := db.ListRuleResults(ctx, run.ID)
			if err != nil {
				return err
			}
			diags, err := db.ListDiagnostics(ctx, run.ID, rule)
			if err != nil {
				return err
			}
			severities, err := db.ListFieldSeverities(ctx, run.ID, rule)
			if err != nil {
				return err
			}
			background, err := db.ListBackgroundIssues(ctx, run.ID)
			if err != nil {
				return err
			}
			rec := &stores.RunRecord{Run: *run, Rules: rules, Diagnostics: diags, Severities: severities, Background: background}
			if rule != "" {
				rec = onlyRules(rec, []string{rule})
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
			fmt.Fprintf(out, "Run %s (%s) started %s\n", run.ID, run.Status, run.StartedAt.Local().Format(time.DateTime))
			if run.Error != nil {
				fmt.Fprintf(out, "Error: %s\n", *run.Error)
				return nil
			}
			fmt.Fprintf(out, "Inputs: %s\n\n", run.Inputs)
			if err := printRuleResults(out, rec.Rules); err != nil {
				return err
			}
			printDiagnostics(out, rec.Diagnostics, rec.Severities)
			return nil
		},
	}

	cmd.Flags().StringVar(&rule, "rule", "", "only show this rule")

	return cmd
}

func newHistoryPruneCommand(dbPath *string) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return fmt.Errorf("--keep must not be negative")
			}
			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.close()
			db, err := a.openStore(cmd.Context(), *dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.PruneRuns(cmd.Context(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d run(s)\n", n)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 50, "number of newest runs to keep")

	return cmd
}
