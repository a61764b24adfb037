package commands

import (
	"fmt"

	"github.com/pointaudit/pointaudit/pkg/ingest"
	"github.com/pointaudit/pointaudit/pkg/stores"
	"github.com/spf13/cobra"
)

func newBackgroundCommand() *cobra.Command {
	var (
		inputs inputFlags
		ignore []string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "background",
		Short: "List background-integrity issues of the graphics sources",
		Long: `Scan the graphics sources and list the lines of their BACKGROUND sections
that define tags or call macros.

Issues listed in rules.background.ignored_issues, or given with --ignore,
are hidden; a line stays visible while any of its issues is not ignored.`,
		Example: `  pointaudit background
  pointaudit background --ignore "Macro 12" --ignore "Macro 7"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, &inputs)
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.Inputs.GraphicsDir == "" {
				return fmt.Errorf("no graphics directory configured (set inputs.graphics_dir or --graphics)")
			}
			s, err := a.newSession()
			if err != nil {
				return err
			}
			if _, err := s.Load(cmd.Context(), ingest.Inputs{GraphicsDir: a.cfg.Inputs.GraphicsDir}); err != nil {
				return err
			}

			var ignored []string
			if !all {
				ignored = append(append(ignored, a.cfg.Rules.Background.IgnoredIssues...), ignore...)
			}
			var issues []stores.BackgroundIssue
			for _, b := range s.Background(ignored) {
				issues = append(issues, stores.BackgroundIssue{File: b.File, Line: b.Line, Issues: b.Issues})
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, issues)
			}
			if len(issues) == 0 {
				fmt.Fprintln(out, "No background issues")
				return nil
			}
			return printBackground(out, issues)
		},
	}

	inputs.register(cmd)
	cmd.Flags().StringArrayVar(&ignore, "ignore", nil, "hide an issue by its text")
	cmd.Flags().BoolVar(&all, "all", false, "show ignored issues too")

	return cmd
}
