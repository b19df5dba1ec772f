package main

import "github.com/spf13/cobra"

func newSelectCommand(g *globalOptions) *cobra.Command {
	var (
		claims []string
		out    reportFlags
	)

	cmd := &cobra.Command{
		Use:   "select <analysis-id>",
		Short: "Choose claims of an analysis to verify",
		Long: `Choose claims of an analysis to verify.

For an analysis waiting for claim selection, the candidates are the claims the
service extracted. For a completed report, they are the extracted claims that
have no verdict yet. The chosen claims are verified and the updated report is
printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			runner, stop := newRunner(cmd, g, e, claims)
			res, err := runner.CheckRemaining(cmd.Context(), args[0])
			stop()
			if err != nil {
				return selectionHint(err)
			}
			return writeResult(cmd, e.cfg, out, res)
		},
	}

	cmd.Flags().StringSliceVar(&claims, "claims", nil, "Claims to verify: one-based positions or hashes")
	out.register(cmd)

	return cmd
}
