package main

import (
	"strings"

	"github.com/maxradov/propacondom-app/internal/lang"
	"github.com/spf13/cobra"
)

func newCheckCommand(g *globalOptions) *cobra.Command {
	var (
		language string
		claims   []string
		out      reportFlags
	)

	cmd := &cobra.Command{
		Use:   "check <url-or-text>...",
		Short: "Submit a URL or text for fact-checking",
		Long: `Submit a URL or a piece of text for fact-checking.

The command waits for the analysis to finish, printing progress as it goes.
When the service asks which claims to verify, you pick them interactively, or
up front with --claims (one-based positions or claim hashes). The final report
is then printed.

Multiple arguments are joined with spaces, so unquoted text works too.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			pref := language
			if pref == "" {
				pref = e.cfg.Defaults.Lang
			}

			runner, stop := newRunner(cmd, g, e, claims)
			res, err := runner.Check(cmd.Context(), strings.Join(args, " "), lang.Match(pref))
			stop()
			if err != nil {
				return selectionHint(err)
			}
			return writeResult(cmd, e.cfg, out, res)
		},
	}

	cmd.Flags().StringVarP(&language, "lang", "l", "", "Report language; any locale tag is matched to a supported one (default from config)")
	cmd.Flags().StringSliceVar(&claims, "claims", nil, "Claims to verify when asked: one-based positions or hashes")
	out.register(cmd)

	return cmd
}
