package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Format selects an output representation.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Formats lists the accepted values of Format.
var Formats = []Format{FormatText, FormatMarkdown, FormatJSON}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatMarkdown, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected text, markdown or json)", s)
	}
}

// Options controls how a View is written.
type Options struct {
	Format Format
	Toggle DetailsToggle
	// Terminal enables colours for text and glamour rendering for markdown.
	Terminal bool
	// Width is the wrap width for terminal markdown. Zero means 80.
	Width int
}

// Write renders v to w. A View carrying an error is written as that message
// alone in every format.
func Write(w io.Writer, v View, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatMarkdown:
		md := Markdown(v, opts.Toggle)
		if opts.Terminal && v.Error == "" {
			out, err := Terminal(md, opts.Width)
			if err != nil {
				return fmt.Errorf("rendering markdown: %w", err)
			}
			md = out
		}
		_, err := io.WriteString(w, md)
		return err
	default:
		_, err := io.WriteString(w, Text(v, opts.Toggle, opts.Terminal))
		return err
	}
}

const barWidth = 30

var verdictColors = map[string]lipgloss.Color{
	"true":         lipgloss.Color("#2E7D32"),
	"partly-true":  lipgloss.Color("#9E9D24"),
	"misleading":   lipgloss.Color("#EF6C00"),
	"false":        lipgloss.Color("#C62828"),
	"unverifiable": lipgloss.Color("#757575"),
}

type textStyles struct {
	color   bool
	title   lipgloss.Style
	heading lipgloss.Style
	muted   lipgloss.Style
}

func newTextStyles(color bool) textStyles {
	return textStyles{
		color:   color,
		title:   lipgloss.NewStyle().Bold(true),
		heading: lipgloss.NewStyle().Bold(true).Underline(true),
		muted:   lipgloss.NewStyle().Faint(true),
	}
}

func (s textStyles) render(st lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return st.Render(text)
}

func (s textStyles) verdict(class, text string) string {
	c, ok := verdictColors[class]
	if !s.color || !ok {
		return text
	}
	return lipgloss.NewStyle().Foreground(c).Render(text)
}

// Text renders v as aligned plain text. Server text is flattened from inline
// markdown.
//
//nolint:errcheck // writes to a strings.Builder cannot fail
func Text(v View, toggle DetailsToggle, color bool) string {
	var b strings.Builder
	if v.Error != "" {
		fmt.Fprintln(&b, v.Error)
		return b.String()
	}
	st := newTextStyles(color)

	if v.Title != "" {
		fmt.Fprintln(&b, st.render(st.title, PlainText(v.Title)))
	}
	if v.SourceURL != "" {
		fmt.Fprintln(&b, st.render(st.muted, "Source: "+v.SourceURL))
	}
	if v.Title != "" || v.SourceURL != "" {
		fmt.Fprintln(&b)
	}

	if len(v.Breakdown) > 0 {
		labelWidth := 0
		for _, seg := range v.Breakdown {
			labelWidth = max(labelWidth, runewidth.StringWidth(seg.Verdict))
		}
		for _, seg := range v.Breakdown {
			filled := int(math.Round(seg.Width / 100 * barWidth))
			bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
			fmt.Fprintf(&b, "%s  %s  %d (%s)\n",
				st.verdict(seg.Class, padRight(seg.Verdict, labelWidth)),
				st.verdict(seg.Class, bar),
				seg.Count, seg.Percent())
		}
		fmt.Fprintln(&b)
	}

	if len(v.Stats) > 0 {
		fmt.Fprintln(&b, strings.Join(v.Stats, " | "))
		fmt.Fprintln(&b)
	}

	if v.Summary != nil {
		if v.Summary.OverallVerdict != "" {
			fmt.Fprintln(&b, st.render(st.heading, PlainText(v.Summary.OverallVerdict)))
		}
		if v.Summary.Assessment != "" {
			fmt.Fprintln(&b, PlainText(v.Summary.Assessment))
		}
		for _, p := range v.Summary.KeyPoints {
			fmt.Fprintf(&b, "  • %s\n", PlainText(p))
		}
		fmt.Fprintln(&b)
	}

	if !toggle.Visible() {
		fmt.Fprintf(&b, "▸ %s (%d claims)\n", toggle.Label(), len(v.Details))
		return b.String()
	}

	fmt.Fprintf(&b, "▾ %s\n\n", toggle.Label())
	for i, c := range v.Details {
		verdict := c.Verdict
		if verdict == "" {
			verdict = noVerdictLabel
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, st.verdict(c.VerdictClass, verdict), PlainText(c.Claim))
		if c.Explanation != "" {
			fmt.Fprintf(&b, "   %s\n", PlainText(c.Explanation))
		}
		if c.Confidence != nil {
			fmt.Fprintf(&b, "   Confidence: %s\n", formatPercent(*c.Confidence))
		}
		if len(c.Sources) > 0 {
			fmt.Fprintln(&b, "   Sources:")
			for _, s := range c.Sources {
				if s.Label == s.URL {
					fmt.Fprintf(&b, "     [%d] %s\n", s.Number, s.URL)
					continue
				}
				fmt.Fprintf(&b, "     [%d] %s %s\n", s.Number, s.Label, st.render(st.muted, "<"+s.URL+">"))
			}
		}
		fmt.Fprintln(&b)
	}
	return b.String()
}

// Markdown renders v as a markdown document.
//
//nolint:errcheck // writes to a strings.Builder cannot fail
func Markdown(v View, toggle DetailsToggle) string {
	var b strings.Builder
	if v.Error != "" {
		fmt.Fprintln(&b, v.Error)
		return b.String()
	}

	if v.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(v.Title))
	}
	if v.SourceURL != "" {
		fmt.Fprintf(&b, "**Source:** <%s>\n\n", v.SourceURL)
	}

	if len(v.Breakdown) > 0 {
		fmt.Fprintln(&b, "| Verdict | Count | Share |")
		fmt.Fprintln(&b, "|---|---:|---:|")
		for _, seg := range v.Breakdown {
			fmt.Fprintf(&b, "| %s | %d | %s |\n", escapeCell(escapeMarkdown(seg.Verdict)), seg.Count, seg.Percent())
		}
		fmt.Fprintln(&b)
	}

	if len(v.Stats) > 0 {
		fmt.Fprintf(&b, "%s\n\n", strings.Join(v.Stats, " | "))
	}

	if v.Summary != nil {
		if v.Summary.OverallVerdict != "" {
			fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(v.Summary.OverallVerdict))
		}
		if v.Summary.Assessment != "" {
			fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(v.Summary.Assessment))
		}
		for _, p := range v.Summary.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", escapeMarkdown(p))
		}
		if len(v.Summary.KeyPoints) > 0 {
			fmt.Fprintln(&b)
		}
	}

	if !toggle.Visible() {
		fmt.Fprintf(&b, "_%s (%d claims)_\n", toggle.Label(), len(v.Details))
		return b.String()
	}

	fmt.Fprintln(&b, "## Detailed Analysis")
	fmt.Fprintln(&b)
	for i, c := range v.Details {
		verdict := c.Verdict
		if verdict == "" {
			verdict = noVerdictLabel
		}
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, escapeMarkdown(c.Claim))
		fmt.Fprintf(&b, "**Verdict:** %s\n\n", escapeMarkdown(verdict))
		if c.Explanation != "" {
			fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(c.Explanation))
		}
		if c.Confidence != nil {
			fmt.Fprintf(&b, "Confidence: %s\n\n", formatPercent(*c.Confidence))
		}
		for _, s := range c.Sources {
			if s.Label == s.URL {
				fmt.Fprintf(&b, "%d. %s\n", s.Number, s.URL)
				continue
			}
			fmt.Fprintf(&b, "%d. [%s](%s)\n", s.Number, escapeMarkdown(s.Label), s.URL)
		}
		if len(c.Sources) > 0 {
			fmt.Fprintln(&b)
		}
	}
	return b.String()
}

// Terminal renders markdown for display in a terminal.
func Terminal(md string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

var angleEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// escapeMarkdown keeps sanitized text that still contains angle brackets,
// such as "5 < 6", from being read as raw HTML.
func escapeMarkdown(s string) string {
	return angleEscaper.Replace(s)
}
