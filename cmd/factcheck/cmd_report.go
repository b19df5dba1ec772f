package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReportCommand(g *globalOptions) *cobra.Command {
	var (
		claims   []string
		parallel int
		out      reportFlags
	)

	cmd := &cobra.Command{
		Use:   "report <analysis-id>...",
		Short: "Show the report of an analysis",
		Long: `Show the report of one or more analyses by id.

Completed reports are served from the local cache when available. With a single
id, an analysis still waiting for claim selection is resolved like in check.
With several ids the reports are fetched concurrently and pending selections
are only listed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			runner, stop := newRunner(cmd, g, e, claims)
			defer stop()

			if len(args) == 1 {
				res, err := runner.Open(cmd.Context(), args[0])
				stop()
				if err != nil {
					return selectionHint(err)
				}
				return writeResult(cmd, e.cfg, out, res)
			}

			results, err := runner.OpenMany(cmd.Context(), args, parallel)
			stop()
			if err != nil {
				return err
			}
			for i, res := range results {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout()) //nolint:errcheck
				}
				if err := writeResult(cmd, e.cfg, out, res); err != nil {
					return fmt.Errorf("%s: %w", res.AnalysisID, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&claims, "claims", nil, "Claims to verify if the analysis awaits selection: one-based positions or hashes")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "Maximum concurrent fetches when several ids are given")
	out.register(cmd)

	return cmd
}
