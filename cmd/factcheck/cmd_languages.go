package main

import (
	"fmt"

	"github.com/maxradov/propacondom-app/internal/lang"
	"github.com/spf13/cobra"
)

func newLanguagesCommand() *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the supported report languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if match != "" {
				code := lang.Match(match)
				_, err := fmt.Fprintf(out, "%s (%s)\n", code, lang.Name(code))
				return err
			}
			for _, l := range lang.Supported() {
				if _, err := fmt.Fprintf(out, "%-4s %s\n", l.Code, l.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "Print the supported language closest to a locale tag")

	return cmd
}
