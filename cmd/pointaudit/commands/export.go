package commands

import (
	"errors"
	"fmt"

	"github.com/pointaudit/pointaudit/pkg/ingest"
	"github.com/spf13/cobra"
)

func newExportDbidCommand() *cobra.Command {
	var (
		inputs inputFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "export-dbid",
		Short: "Write DBID back with derived SOE event tagging",
		Long: `Parse the DBID export and write it back with EVENT_TAGGING_ENABLE of
every I/O module recomputed from the SOE points wired to it.

Only the DBID input is read. The output uses the configured encoding.`,
		Example: `  pointaudit export-dbid -o DBID.new.imp
  pointaudit export-dbid --dbid ./export/DBID.imp -o ./export/DBID.soe.imp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("--output is required")
			}
			a, err := newApp(cmd, &inputs)
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()

			if a.cfg.Inputs.Dbid == "" {
				return errors.New("no DBID input configured (set inputs.dbid or --dbid)")
			}
			s, err := a.newSession()
			if err != nil {
				return err
			}
			if _, err := s.Load(ctx, ingest.Inputs{Dbid: a.cfg.Inputs.Dbid}); err != nil {
				return err
			}
			if err := s.ExportDbid(ctx, output); err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"input": a.cfg.Inputs.Dbid, "output": output})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}

	inputs.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")

	return cmd
}
