// Package render turns report payloads into a presentation-neutral View and
// writes it as text, markdown or JSON.
package render

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/maxradov/propacondom-app/internal/models"
)

// MalformedReportMessage replaces the whole report when a required field is
// missing.
const MalformedReportMessage = "Error: Received incorrect report data format."

// noVerdictLabel names claims and breakdown entries without a verdict.
const noVerdictLabel = "No verdict"

// knownVerdicts fixes the breakdown order for the labels the backend normally
// emits. Any other label follows, sorted by name.
var knownVerdicts = []string{"True", "Partly True", "Misleading", "False", "Unverifiable"}

// View is everything a formatter needs to display a report. When Error is set
// no other field is populated.
type View struct {
	Error string `json:"error,omitempty"`

	ID        string `json:"id,omitempty"`
	Title     string `json:"title,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`

	Total     int         `json:"total,omitempty"`
	Breakdown []Segment   `json:"breakdown,omitempty"`
	Stats     []string    `json:"stats,omitempty"`
	Summary   *Summary    `json:"summary,omitempty"`
	Details   []ClaimView `json:"details,omitempty"`
}

// Segment is one verdict's share of the breakdown bar.
type Segment struct {
	Verdict string  `json:"verdict"`
	Class   string  `json:"class"`
	Count   int     `json:"count"`
	Width   float64 `json:"width"`
}

// Percent is the width rounded for display.
func (s Segment) Percent() string {
	return strconv.FormatFloat(s.Width, 'f', 0, 64) + "%"
}

// Summary is the overall verdict block.
type Summary struct {
	OverallVerdict string   `json:"overall_verdict"`
	Assessment     string   `json:"assessment"`
	KeyPoints      []string `json:"key_points"`
}

// ClaimView is one entry of the detailed analysis.
type ClaimView struct {
	Claim        string       `json:"claim"`
	Verdict      string       `json:"verdict"`
	VerdictClass string       `json:"verdict_class"`
	Explanation  string       `json:"explanation,omitempty"`
	Confidence   *float64     `json:"confidence,omitempty"`
	Sources      []SourceLink `json:"sources,omitempty"`
}

// SourceLink is a numbered source with a short label.
type SourceLink struct {
	Number int    `json:"number"`
	Label  string `json:"label"`
	URL    string `json:"url"`
}

// Build derives the View for a report. It never fails: a report without
// verdict_counts, detailed_results or summary_data yields a View that only
// carries MalformedReportMessage.
func Build(r *models.ReportPayload) View {
	if r == nil || r.VerdictCounts == nil || r.DetailedResults == nil || r.SummaryData == nil {
		return View{Error: MalformedReportMessage}
	}

	v := View{
		ID:        r.ID,
		Title:     Sanitize(r.VideoTitle),
		SourceURL: r.SourceURL,
		CreatedAt: r.CreatedAt,
	}
	v.Total, v.Breakdown = breakdown(r.VerdictCounts)

	if r.AverageConfidence != nil {
		v.Stats = append(v.Stats, "Average confidence: "+formatPercent(*r.AverageConfidence))
	}
	if r.ConfirmedCredibility != nil {
		v.Stats = append(v.Stats, "Confirmed credibility: "+formatPercent(*r.ConfirmedCredibility))
	}

	v.Summary = &Summary{
		OverallVerdict: Sanitize(r.SummaryData.OverallVerdict),
		Assessment:     Sanitize(r.SummaryData.OverallAssessment),
		KeyPoints:      make([]string, 0, len(r.SummaryData.KeyPoints)),
	}
	for _, p := range r.SummaryData.KeyPoints {
		v.Summary.KeyPoints = append(v.Summary.KeyPoints, Sanitize(p))
	}

	v.Details = make([]ClaimView, 0, len(r.DetailedResults))
	for _, c := range r.DetailedResults {
		cv := ClaimView{
			Claim:       Sanitize(c.Claim),
			Verdict:     Sanitize(c.Verdict),
			Explanation: Sanitize(c.Explanation),
			Confidence:  c.ConfidencePercentage,
		}
		cv.VerdictClass = VerdictClass(cv.Verdict)
		for i, src := range c.Sources {
			cv.Sources = append(cv.Sources, SourceLink{Number: i + 1, Label: SourceLabel(src), URL: src})
		}
		v.Details = append(v.Details, cv)
	}
	return v
}

// breakdown computes segment widths as exact fractions of the total. Zero and
// negative counts produce no segment. Labels are sanitized; labels that clean
// up to the same text share one segment.
func breakdown(raw map[string]int) (int, []Segment) {
	total := 0
	counts := make(map[string]int, len(raw))
	for label, n := range raw {
		if n <= 0 {
			continue
		}
		clean := Sanitize(label)
		if clean == "" {
			clean = noVerdictLabel
		}
		counts[clean] += n
		total += n
	}
	if total == 0 {
		return 0, nil
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		ri, rj := verdictRank(labels[i]), verdictRank(labels[j])
		if ri != rj {
			return ri < rj
		}
		return labels[i] < labels[j]
	})

	segs := make([]Segment, 0, len(labels))
	for _, label := range labels {
		n := counts[label]
		segs = append(segs, Segment{
			Verdict: label,
			Class:   VerdictClass(label),
			Count:   n,
			Width:   float64(n) / float64(total) * 100,
		})
	}
	return total, segs
}

func verdictRank(label string) int {
	for i, v := range knownVerdicts {
		if v == label {
			return i
		}
	}
	return len(knownVerdicts)
}

var classSeparators = regexp.MustCompile(`[\s/]+`)

// VerdictClass normalises a verdict label into a style key: lowercased, with
// every run of whitespace or slashes replaced by a single dash. An empty label
// maps to "unknown".
func VerdictClass(verdict string) string {
	v := strings.ToLower(strings.TrimSpace(verdict))
	if v == "" {
		return "unknown"
	}
	return classSeparators.ReplaceAllString(v, "-")
}

// SourceLabel returns the host of a source URL without a leading "www.", or
// the raw string when it does not parse as an absolute URL.
func SourceLabel(raw string) string {
	s := strings.TrimSpace(raw)
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
