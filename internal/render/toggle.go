package render

// Labels of the details toggle control.
const (
	ShowDetailsLabel = "Show Detailed Analysis"
	HideDetailsLabel = "Hide Detailed Analysis"
)

// DetailsToggle is the local show/hide state of the detailed analysis. The
// zero value is collapsed.
type DetailsToggle struct {
	visible bool
}

// Visible reports whether details are shown.
func (t *DetailsToggle) Visible() bool { return t.visible }

// Label is the text of the control for the current state.
func (t *DetailsToggle) Label() string {
	if t.visible {
		return HideDetailsLabel
	}
	return ShowDetailsLabel
}

// Toggle flips visibility and, with it, the label.
func (t *DetailsToggle) Toggle() { t.visible = !t.visible }
