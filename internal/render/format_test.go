package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/maxradov/propacondom-app/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "md": FormatMarkdown, "markdown": FormatMarkdown, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("html")
	assert.Error(t, err)
}

func TestText_Collapsed(t *testing.T) {
	out := Text(Build(sampleReport()), DetailsToggle{}, false)

	assert.Contains(t, out, "Interview highlights\nSource: https://youtu.be/abc\n")
	bar := strings.Repeat("█", 15) + strings.Repeat("░", 15)
	assert.Contains(t, out, padRight("True", len("Partly True/Manipulation"))+"  "+bar+"  2 (50%)")
	assert.Contains(t, out, "Average confidence: 87.5% | Confirmed credibility: 70%")
	assert.Contains(t, out, "Mostly accurate\nThe speaker was largely right.\n  • Point one\n  • Point & two\n")
	assert.Contains(t, out, "▸ Show Detailed Analysis (3 claims)")
	assert.NotContains(t, out, "Unemployment fell")
	assert.NotContains(t, out, "\x1b[", "no escape codes without a terminal")
}

func TestText_Expanded(t *testing.T) {
	var tg DetailsToggle
	tg.Toggle()
	out := Text(Build(sampleReport()), tg, false)

	assert.Contains(t, out, "▾ Hide Detailed Analysis")
	assert.Contains(t, out, "1. [True] Unemployment fell to 3%\n   Official statistics confirm it.\n   Confidence: 92%\n")
	assert.Contains(t, out, "     [1] bls.gov <https://www.bls.gov/news>\n")
	assert.Contains(t, out, "     [2] not a url\n")
	assert.Contains(t, out, "3. [No verdict] No verdict yet")
}

func TestText_FlattensMarkdown(t *testing.T) {
	r := sampleReport()
	r.SummaryData.OverallAssessment = "The claim is **mostly** [wrong](https://x.org)."
	out := Text(Build(r), DetailsToggle{}, false)
	assert.Contains(t, out, "The claim is mostly wrong.")
}

func TestText_MalformedOnlyPrintsMessage(t *testing.T) {
	out := Text(Build(nil), DetailsToggle{}, false)
	assert.Equal(t, MalformedReportMessage+"\n", out)
}

func TestMarkdown(t *testing.T) {
	var tg DetailsToggle
	tg.Toggle()
	md := Markdown(Build(sampleReport()), tg)

	assert.Contains(t, md, "# Interview highlights")
	assert.Contains(t, md, "| Partly True/Manipulation | 1 | 25% |")
	assert.Contains(t, md, "## Mostly accurate")
	assert.Contains(t, md, "- Point one\n- Point & two\n")
	assert.Contains(t, md, "### 1. Unemployment fell to 3%")
	assert.Contains(t, md, "1. [bls.gov](https://www.bls.gov/news)")
	assert.Contains(t, md, "2. not a url")
}

func TestMarkdown_NoLiveTags(t *testing.T) {
	r := sampleReport()
	r.DetailedResults = []models.Claim{{Claim: "&lt;img src=x onerror=alert(1)&gt;", Verdict: "True", Explanation: "5 &lt; 6"}}
	r.SummaryData.KeyPoints = []string{"&lt;script&gt;alert(1)&lt;/script&gt;"}
	var tg DetailsToggle
	tg.Toggle()

	md := Markdown(Build(r), tg)
	assert.NotContains(t, md, "<script")
	assert.NotContains(t, md, "<img")
	assert.Contains(t, md, "5 &lt; 6")
}

func TestMarkdown_Collapsed(t *testing.T) {
	md := Markdown(Build(sampleReport()), DetailsToggle{})
	assert.Contains(t, md, "_Show Detailed Analysis (3 claims)_")
	assert.NotContains(t, md, "Detailed Analysis\n")
}

func TestEscapeCell(t *testing.T) {
	assert.Equal(t, `a\|b`, escapeCell("a|b"))
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Build(sampleReport()), Options{Format: FormatJSON}))

	var decoded View
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 4, decoded.Total)
	assert.Len(t, decoded.Details, 3)

	buf.Reset()
	require.NoError(t, Write(&buf, Build(nil), Options{Format: FormatJSON}))
	assert.JSONEq(t, `{"error": "Error: Received incorrect report data format."}`, buf.String())
}

func TestWrite_TerminalMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Build(sampleReport()), Options{Format: FormatMarkdown, Terminal: true, Width: 60}))
	assert.Contains(t, buf.String(), "Mostly accurate")
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "日本  ", padRight("日本", 6))
	assert.Equal(t, "abc", padRight("abc", 2))
}
