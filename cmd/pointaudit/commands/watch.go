package commands

import (
	"fmt"
	"time"

	"github.com/pointaudit/pointaudit/pkg/ingest"
	"github.com/pointaudit/pointaudit/pkg/stores"
	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	var (
		inputs   inputFlags
		save     bool
		dbPath   string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Revalidate whenever an input changes",
		Long: `Run a full validation, then repeat it each time one of the input files
or directories changes. Changes are debounced. Inputs must be local paths.

Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			out := cmd.OutOrStdout()
			onResult := func(report *ingest.Report, loadErr error) {
				if db != nil {
					if err := a.saveRun(ctx, db, s, time.Now(), report, loadErr); err != nil {
						a.logger.Error().Err(err).Msg("Failed to save run")
					}
				}
				if loadErr != nil {
					a.logger.Error().Err(loadErr).Msg("Ingestion failed")
					return
				}
				rec, err := stores.NewRunRecord(report, s.Engine().Diagnostics())
				if err != nil {
					a.logger.Error().Err(err).Msg("Failed to summarize run")
					return
				}
				if jsonOutput {
					_ = writeJSON(out, validateOutput{Run: rec.Run, Rules: rec.Rules})
					return
				}
				fmt.Fprintf(out, "%s run %s: %d points\n", time.Now().Format(time.TimeOnly), rec.Run.ID, rec.Run.Points)
				_ = printRuleResults(out, rec.Rules)
				fmt.Fprintln(out)
			}
			return s.Watch(ctx, a.cfg.IngestInputs(), debounce, onResult)
		},
	}

	inputs.register(cmd)
	cmd.Flags().BoolVar(&save, "save", false, "save every run to the report database")
	cmd.Flags().StringVar(&dbPath, "db", "", "report database (overrides report.database)")
	cmd.Flags().DurationVar(&debounce, "debounce", ingest.DefaultDebounce, "quiet period before a reload")

	return cmd
}
