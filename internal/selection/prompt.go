package selection

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrNoSelectable is returned when every candidate has already been checked.
var ErrNoSelectable = errors.New("every claim has already been checked")

// Prompt asks the user to pick claims with a multi-select form and applies
// the answer to c. Already verified claims are listed in a note above the
// form. Off a terminal the form runs in accessible mode, where an empty
// answer or end of input returns ErrNothingSelected.
func Prompt(in io.Reader, out io.Writer, c *Checklist) error {
	var (
		chosen  []int
		options []huh.Option[int]
		cached  []string
	)
	for i, it := range c.Items() {
		if it.Disabled {
			cached = append(cached, fmt.Sprintf("✓ %s (%s)", it.Text, it.Note))
			continue
		}
		options = append(options, huh.NewOption(it.Text, i).Selected(it.Checked))
	}
	if len(options) == 0 {
		return ErrNoSelectable
	}

	var fields []huh.Field
	if len(cached) > 0 {
		fields = append(fields, huh.NewNote().
			Title("Already checked").
			Description(strings.Join(cached, "\n")))
	}
	fields = append(fields, huh.NewMultiSelect[int]().
		Title(fmt.Sprintf("Select up to %d claims to verify", c.Max())).
		Options(options...).
		Limit(c.Max()).
		Value(&chosen))

	form := huh.NewForm(huh.NewGroup(fields...)).
		WithInput(in).
		WithOutput(out)

	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	// The answer is checked after Run: in accessible mode a failing field
	// validator re-prompts even once input is exhausted.
	if err := form.Run(); err != nil {
		return fmt.Errorf("claim selection: %w", err)
	}
	if len(chosen) == 0 {
		return ErrNothingSelected
	}
	return c.Replace(chosen)
}
