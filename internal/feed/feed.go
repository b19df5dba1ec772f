// Package feed pages through the recent-analyses feed.
package feed

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/maxradov/propacondom-app/internal/models"
)

// DefaultMaxItems caps how many cards a Pager yields in total.
const DefaultMaxItems = 50

// MissingTitle marks analyses whose source title could not be resolved. They
// are never shown.
const MissingTitle = "Title Not Found"

// Placeholder thumbnails, relative to the backend base URL.
const (
	TextPlaceholder    = "/static/text-placeholder.png"
	URLPlaceholder     = "/static/url-placeholder.png"
	DefaultPlaceholder = "/static/default-placeholder.png"
)

// PageSource returns the page of cards that follows cursor.
type PageSource interface {
	RecentAnalyses(ctx context.Context, lastTimestamp string) ([]models.AnalysisCard, error)
}

// Pager walks the feed page by page. It is not safe for concurrent use.
type Pager struct {
	src    PageSource
	max    int
	cursor string
	loaded int
	done   bool
}

// NewPager creates a pager yielding at most maxItems cards. Zero or less means
// DefaultMaxItems.
func NewPager(src PageSource, maxItems int) *Pager {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Pager{src: src, max: maxItems}
}

// Done reports whether the feed is exhausted or the cap was reached.
func (p *Pager) Done() bool { return p.done }

// Loaded is the number of cards yielded so far.
func (p *Pager) Loaded() int { return p.loaded }

// Next fetches the following page and returns its visible cards. The cursor
// advances to the last card received, so a page whose cards are all hidden
// still moves the feed forward. An empty result with Done() false means the
// page only held hidden cards.
func (p *Pager) Next(ctx context.Context) ([]models.AnalysisCard, error) {
	if p.done {
		return nil, nil
	}
	page, err := p.src.RecentAnalyses(ctx, p.cursor)
	if err != nil {
		return nil, err
	}
	if len(page) == 0 {
		p.done = true
		return nil, nil
	}

	var out []models.AnalysisCard
	for _, card := range page {
		if p.loaded >= p.max {
			break
		}
		if card.VideoTitle == MissingTitle {
			continue
		}
		out = append(out, card)
		p.loaded++
	}

	last := page[len(page)-1].CreatedAt
	if last == "" || last == p.cursor || p.loaded >= p.max {
		p.done = true
	}
	p.cursor = last
	return out, nil
}

// All drains the pager.
func (p *Pager) All(ctx context.Context) ([]models.AnalysisCard, error) {
	var all []models.AnalysisCard
	for !p.Done() {
		cards, err := p.Next(ctx)
		if err != nil {
			return all, err
		}
		all = append(all, cards...)
	}
	return all, nil
}

// Thumbnail picks the image to show for card. Text analyses always use the
// text placeholder.
func Thumbnail(card models.AnalysisCard) string {
	switch {
	case card.InputType == "text":
		return TextPlaceholder
	case card.ThumbnailURL != "":
		return card.ThumbnailURL
	case card.InputType == "url":
		return URLPlaceholder
	default:
		return DefaultPlaceholder
	}
}

const titleWidth = 48

// WriteTable prints cards as an aligned table.
func WriteTable(w io.Writer, cards []models.AnalysisCard) error {
	if len(cards) == 0 {
		_, err := fmt.Fprintln(w, "No analyses yet.")
		return err
	}
	idWidth := len("ID")
	for _, c := range cards {
		idWidth = max(idWidth, runewidth.StringWidth(c.ID))
	}
	header := fmt.Sprintf("%s  %s  %11s  %10s  %s",
		runewidth.FillRight("ID", idWidth), runewidth.FillRight("TITLE", titleWidth),
		"CREDIBILITY", "CONFIDENCE", "CREATED")
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for _, c := range cards {
		title := runewidth.Truncate(strings.TrimSpace(c.VideoTitle), titleWidth, "…")
		_, err := fmt.Fprintf(w, "%s  %s  %11s  %10s  %s\n",
			runewidth.FillRight(c.ID, idWidth), runewidth.FillRight(title, titleWidth),
			percent(c.ConfirmedCredibility), percent(c.AverageConfidence), c.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func percent(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + "%"
}
