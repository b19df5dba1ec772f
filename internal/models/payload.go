package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Discriminant values of the payload status field.
const (
	PayloadStatusCompleted        = "COMPLETED"
	PayloadStatusPendingSelection = "PENDING_SELECTION"
)

// PayloadKind tags which member of the payload union is populated.
type PayloadKind int

const (
	KindReport PayloadKind = iota
	KindSelection
	// KindReference is a success result that only names the analysis; the
	// report itself has to be fetched by id.
	KindReference
)

func (k PayloadKind) String() string {
	switch k {
	case KindReport:
		return "report"
	case KindSelection:
		return "selection"
	case KindReference:
		return "reference"
	default:
		return fmt.Sprintf("PayloadKind(%d)", int(k))
	}
}

// Payload is the tagged union of everything a successful task or the
// report-by-id endpoint can return. Exactly one of Report and Selection is set
// for KindReport and KindSelection; KindReference only carries AnalysisID.
type Payload struct {
	Kind       PayloadKind
	AnalysisID string
	Report     *ReportPayload
	Selection  *SelectionPayload
}

// ErrEmptyPayload is returned when there is no payload to decode.
var ErrEmptyPayload = errors.New("empty payload")

// PayloadError is a success payload that only carries an error message. The
// backend reports some pipeline failures this way instead of as FAILURE.
type PayloadError struct {
	Message string
}

func (e *PayloadError) Error() string {
	return e.Message
}

// ReportPayload is a completed fact-check report.
type ReportPayload struct {
	ID                   string           `json:"id,omitempty"`
	Status               string           `json:"status,omitempty"`
	VerdictCounts        map[string]int   `json:"verdict_counts"`
	DetailedResults      []Claim          `json:"detailed_results"`
	SummaryData          *SummaryData     `json:"summary_data"`
	AverageConfidence    *float64         `json:"average_confidence,omitempty"`
	ConfirmedCredibility *float64         `json:"confirmed_credibility,omitempty"`
	ExtractedClaims      []ExtractedClaim `json:"extracted_claims,omitempty"`
	VideoTitle           string           `json:"video_title,omitempty"`
	ThumbnailURL         string           `json:"thumbnail_url,omitempty"`
	SourceURL            string           `json:"source_url,omitempty"`
	InputType            string           `json:"input_type,omitempty"`
	CreatedAt            string           `json:"created_at,omitempty"`
}

// SummaryData is the editor-style summary of a report.
type SummaryData struct {
	OverallVerdict    string   `json:"overall_verdict"`
	OverallAssessment string   `json:"overall_assessment"`
	KeyPoints         []string `json:"key_points"`
}

// Claim is one verified statement within a report.
type Claim struct {
	Hash                 string   `json:"hash,omitempty"`
	Claim                string   `json:"claim"`
	Verdict              string   `json:"verdict,omitempty"`
	Explanation          string   `json:"explanation,omitempty"`
	Sources              []string `json:"sources,omitempty"`
	ConfidencePercentage *float64 `json:"confidence_percentage,omitempty"`
}

// ExtractedClaim is a candidate claim before any verification.
type ExtractedClaim struct {
	Hash string `json:"hash"`
	Text string `json:"text"`
}

// ClaimRef identifies a claim submitted for verification.
type ClaimRef struct {
	Hash string `json:"hash"`
	Text string `json:"text"`
}

// SelectionPayload asks the user to pick claims to verify.
type SelectionPayload struct {
	Status             string           `json:"status"`
	ID                 string           `json:"id"`
	ClaimsForSelection []SelectionClaim `json:"claims_for_selection"`
	VideoTitle         string           `json:"video_title,omitempty"`
	ThumbnailURL       string           `json:"thumbnail_url,omitempty"`
	SourceURL          string           `json:"source_url,omitempty"`
	InputType          string           `json:"input_type,omitempty"`
}

// SelectionClaim is one candidate in a selection payload.
type SelectionClaim struct {
	Hash       string         `json:"hash"`
	Text       string         `json:"text"`
	IsCached   bool           `json:"is_cached"`
	CachedData *CachedVerdict `json:"cached_data,omitempty"`
}

// CachedVerdict is the prior result of an already verified claim.
type CachedVerdict struct {
	Verdict       string `json:"verdict"`
	LastCheckedAt string `json:"last_checked_at,omitempty"`
}

// payloadProbe reads just enough of a payload to decide its kind.
type payloadProbe struct {
	Status          string          `json:"status"`
	ID              string          `json:"id"`
	Error           string          `json:"error"`
	VerdictCounts   json.RawMessage `json:"verdict_counts"`
	DetailedResults json.RawMessage `json:"detailed_results"`
	SummaryData     json.RawMessage `json:"summary_data"`
}

func (p *payloadProbe) hasReportFields() bool {
	return len(p.VerdictCounts) > 0 || len(p.DetailedResults) > 0 || len(p.SummaryData) > 0
}

// DecodePayload decides the payload kind from the status discriminant and
// decodes the matching shape. Report payloads are not validated here; missing
// required fields are the renderer's concern.
func DecodePayload(raw json.RawMessage) (*Payload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ErrEmptyPayload
	}
	if raw[0] != '{' {
		if s := rawString(raw); s != "" {
			return nil, &PayloadError{Message: s}
		}
		return nil, fmt.Errorf("unexpected payload: %.80s", raw)
	}

	var probe payloadProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}

	switch {
	case probe.Status == PayloadStatusPendingSelection:
		var sel SelectionPayload
		if err := json.Unmarshal(raw, &sel); err != nil {
			return nil, fmt.Errorf("decoding selection payload: %w", err)
		}
		return &Payload{Kind: KindSelection, AnalysisID: sel.ID, Selection: &sel}, nil
	case probe.Status == PayloadStatusCompleted || probe.hasReportFields():
		var rep ReportPayload
		if err := json.Unmarshal(raw, &rep); err != nil {
			return nil, fmt.Errorf("decoding report payload: %w", err)
		}
		return &Payload{Kind: KindReport, AnalysisID: rep.ID, Report: &rep}, nil
	case probe.Error != "":
		return nil, &PayloadError{Message: probe.Error}
	case probe.ID != "":
		return &Payload{Kind: KindReference, AnalysisID: probe.ID}, nil
	default:
		// Nothing recognisable: hand it to the renderer as a report so the
		// missing-field check reports it.
		var rep ReportPayload
		if err := json.Unmarshal(raw, &rep); err != nil {
			return nil, fmt.Errorf("decoding report payload: %w", err)
		}
		return &Payload{Kind: KindReport, AnalysisID: rep.ID, Report: &rep}, nil
	}
}
