package models

// AnalysisCard is one entry of the recent-analyses feed.
type AnalysisCard struct {
	ID                   string   `json:"id"`
	VideoTitle           string   `json:"video_title"`
	ThumbnailURL         string   `json:"thumbnail_url,omitempty"`
	InputType            string   `json:"input_type,omitempty"`
	ConfirmedCredibility *float64 `json:"confirmed_credibility,omitempty"`
	AverageConfidence    *float64 `json:"average_confidence,omitempty"`
	CreatedAt            string   `json:"created_at"`
}
