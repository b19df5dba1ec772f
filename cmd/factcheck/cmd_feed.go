package main

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/maxradov/propacondom-app/internal/feed"
	"github.com/maxradov/propacondom-app/internal/models"
	"github.com/spf13/cobra"
)

// feedItem is the JSON shape of a feed card.
type feedItem struct {
	models.AnalysisCard
	Thumbnail string `json:"thumbnail"`
}

func newFeedCommand(g *globalOptions) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List recent analyses",
		Long: `List recent analyses, newest first.

Pages are fetched until the feed is exhausted or --limit cards were shown.
Analyses whose source title could not be resolved are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			if !cmd.Flags().Changed("limit") {
				limit = e.cfg.Feed.MaxItems
			}
			cards, err := feed.NewPager(e.client, limit).All(cmd.Context())
			if err != nil {
				return err
			}

			if !asJSON {
				return feed.WriteTable(cmd.OutOrStdout(), cards)
			}
			items := make([]feedItem, len(cards))
			for i, c := range cards {
				items[i] = feedItem{AnalysisCard: c, Thumbnail: absoluteURL(e.client.BaseURL(), feed.Thumbnail(c))}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(items); err != nil {
				return fmt.Errorf("encoding feed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", feed.DefaultMaxItems, "Maximum number of analyses to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print cards as JSON")

	return cmd
}

// absoluteURL resolves a placeholder path against the backend base URL.
func absoluteURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
