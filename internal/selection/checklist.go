// Package selection implements the bounded claim checklist used to pick
// claims for verification.
package selection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/maxradov/propacondom-app/internal/models"
)

// DefaultMaxClaims is how many claims may be submitted at once.
const DefaultMaxClaims = 5

// ErrNothingSelected is returned when a submission has no checked claims.
var ErrNothingSelected = errors.New("select at least one claim to verify")

// ErrDisabled is returned when toggling a claim that was already verified.
var ErrDisabled = errors.New("claim was already checked")

// LimitError rejects checking a claim beyond the limit.
type LimitError struct {
	Max int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("You can only select up to %d claims.", e.Max)
}

// Item is one row of the checklist.
type Item struct {
	Hash     string
	Text     string
	Checked  bool
	Disabled bool
	// Note annotates cached claims, e.g. "Already checked: True".
	Note string
}

// Checklist holds the selection state. Disabled items are shown checked but
// never count towards the limit and are never submitted.
type Checklist struct {
	items []Item
	max   int
}

// NewChecklist builds a checklist from a selection payload's candidates.
func NewChecklist(claims []models.SelectionClaim, limit int) *Checklist {
	c := &Checklist{max: normalizeMax(limit)}
	for _, cl := range claims {
		item := Item{Hash: cl.Hash, Text: strings.TrimSpace(cl.Text)}
		if cl.IsCached {
			item.Checked = true
			item.Disabled = true
			item.Note = "Already checked"
			if cl.CachedData != nil && cl.CachedData.Verdict != "" {
				item.Note += ": " + cl.CachedData.Verdict
			}
		}
		c.items = append(c.items, item)
	}
	return c
}

// FromExtracted builds a checklist of plain, unchecked candidates.
func FromExtracted(claims []models.ExtractedClaim, limit int) *Checklist {
	c := &Checklist{max: normalizeMax(limit)}
	for _, cl := range claims {
		c.items = append(c.items, Item{Hash: cl.Hash, Text: strings.TrimSpace(cl.Text)})
	}
	return c
}

func normalizeMax(n int) int {
	if n <= 0 {
		return DefaultMaxClaims
	}
	return n
}

// Max is the selection limit.
func (c *Checklist) Max() int { return c.max }

// Len is the number of items, cached ones included.
func (c *Checklist) Len() int { return len(c.items) }

// Items returns a copy of the rows.
func (c *Checklist) Items() []Item {
	return append([]Item(nil), c.items...)
}

// Count is the number of checked, selectable items.
func (c *Checklist) Count() int {
	n := 0
	for _, it := range c.items {
		if it.Checked && !it.Disabled {
			n++
		}
	}
	return n
}

// Selectable is the number of items that are not disabled.
func (c *Checklist) Selectable() int {
	n := 0
	for _, it := range c.items {
		if !it.Disabled {
			n++
		}
	}
	return n
}

// SubmitEnabled reports whether at least one claim is selected.
func (c *Checklist) SubmitEnabled() bool {
	return c.Count() > 0
}

func (c *Checklist) item(i int) (*Item, error) {
	if i < 0 || i >= len(c.items) {
		return nil, fmt.Errorf("claim %d out of range (1-%d)", i+1, len(c.items))
	}
	it := &c.items[i]
	if it.Disabled {
		return nil, fmt.Errorf("claim %d: %w", i+1, ErrDisabled)
	}
	return it, nil
}

// Check selects item i (zero-based). Checking past the limit leaves the item
// unchecked and returns a *LimitError.
func (c *Checklist) Check(i int) error {
	it, err := c.item(i)
	if err != nil {
		return err
	}
	if it.Checked {
		return nil
	}
	if c.Count() >= c.max {
		return &LimitError{Max: c.max}
	}
	it.Checked = true
	return nil
}

// Uncheck clears item i.
func (c *Checklist) Uncheck(i int) error {
	it, err := c.item(i)
	if err != nil {
		return err
	}
	it.Checked = false
	return nil
}

// Toggle flips item i, subject to the same limit as Check.
func (c *Checklist) Toggle(i int) error {
	it, err := c.item(i)
	if err != nil {
		return err
	}
	if it.Checked {
		it.Checked = false
		return nil
	}
	return c.Check(i)
}

// Selected returns the checked, selectable claims in list order.
func (c *Checklist) Selected() []models.ClaimRef {
	var refs []models.ClaimRef
	for _, it := range c.items {
		if it.Checked && !it.Disabled {
			refs = append(refs, models.ClaimRef{Hash: it.Hash, Text: it.Text})
		}
	}
	return refs
}

// Submission returns the selected claims, or ErrNothingSelected.
func (c *Checklist) Submission() ([]models.ClaimRef, error) {
	refs := c.Selected()
	if len(refs) == 0 {
		return nil, ErrNothingSelected
	}
	return refs, nil
}

// ApplyHashes checks the items with the given hashes, in order.
func (c *Checklist) ApplyHashes(hashes []string) error {
	for _, h := range hashes {
		h = strings.TrimSpace(h)
		idx := -1
		for i, it := range c.items {
			if it.Hash == h {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("no claim with hash %q", h)
		}
		if err := c.Check(idx); err != nil {
			return err
		}
	}
	return nil
}

// ApplyIndexes checks items by one-based position, in order.
func (c *Checklist) ApplyIndexes(positions []int) error {
	for _, p := range positions {
		if err := c.Check(p - 1); err != nil {
			return err
		}
	}
	return nil
}

// Replace clears every selectable item and checks the given zero-based
// positions.
func (c *Checklist) Replace(positions []int) error {
	for i := range c.items {
		if !c.items[i].Disabled {
			c.items[i].Checked = false
		}
	}
	for _, i := range positions {
		if err := c.Check(i); err != nil {
			return err
		}
	}
	return nil
}
