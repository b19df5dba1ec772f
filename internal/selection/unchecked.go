package selection

import (
	"strings"

	"github.com/maxradov/propacondom-app/internal/models"
)

// Unchecked returns the extracted claims not covered by any detailed result.
// A claim is covered when its hash matches a result's hash, or its trimmed
// text matches a result's trimmed claim text.
func Unchecked(extracted []models.ExtractedClaim, detailed []models.Claim) []models.ExtractedClaim {
	hashes := make(map[string]struct{}, len(detailed))
	texts := make(map[string]struct{}, len(detailed))
	for _, d := range detailed {
		if d.Hash != "" {
			hashes[d.Hash] = struct{}{}
		}
		if t := strings.TrimSpace(d.Claim); t != "" {
			texts[t] = struct{}{}
		}
	}

	out := []models.ExtractedClaim{}
	for _, e := range extracted {
		if _, ok := hashes[e.Hash]; ok && e.Hash != "" {
			continue
		}
		if _, ok := texts[strings.TrimSpace(e.Text)]; ok {
			continue
		}
		out = append(out, e)
	}
	return out
}
