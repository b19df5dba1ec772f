package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/maxradov/propacondom-app/internal/config"
	"github.com/maxradov/propacondom-app/internal/models"
	"github.com/maxradov/propacondom-app/internal/render"
	"github.com/maxradov/propacondom-app/internal/selection"
	"github.com/maxradov/propacondom-app/internal/spinner"
	"github.com/maxradov/propacondom-app/internal/workflow"
	"github.com/spf13/cobra"
)

// reportFlags are the output flags shared by commands that print a report.
type reportFlags struct {
	format  string
	details bool
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "", "Output format: text, markdown or json (default from config)")
	cmd.Flags().BoolVar(&f.details, "details", false, "Expand the detailed analysis section")
}

// resolve fills unset flags from the configuration.
func (f reportFlags) resolve(cmd *cobra.Command, cfg *config.Config) (render.Format, bool, error) {
	name := f.format
	if name == "" {
		name = cfg.Defaults.Format
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		return "", false, err
	}
	details := f.details
	if !cmd.Flags().Changed("details") {
		details = cfg.ShowDetails()
	}
	return format, details, nil
}

// promptConfirm is a test hook for replacing the confirmation prompt in tests.
// Takes reader, writer, and question string. Returns true for yes.
var promptConfirm = defaultPromptConfirm

func defaultPromptConfirm(in io.Reader, out io.Writer, question string) bool {
	f, ok := in.(*os.File)
	if !ok || !isTerminal(f) {
		return false
	}

	var confirmed bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Show").
				Negative("Skip").
				Value(&confirmed),
		),
	).WithInput(in).WithOutput(out).Run()

	if err != nil {
		return false
	}
	return confirmed
}

// writeResult renders the outcome of a flow.
func writeResult(cmd *cobra.Command, cfg *config.Config, flags reportFlags, res *workflow.Result) error {
	out := cmd.OutOrStdout()
	if res.Report == nil {
		_, err := fmt.Fprintf(out, "Analysis %s is waiting for claim selection. Run: factcheck select %s\n", res.AnalysisID, res.AnalysisID)
		return err
	}
	if res.Cached {
		slog.Debug("showing cached report", "analysis_id", res.AnalysisID)
	}

	format, details, err := flags.resolve(cmd, cfg)
	if err != nil {
		return err
	}
	v := render.Build(res.Report)
	if v.Error != "" {
		return errors.New(v.Error)
	}

	in := cmd.InOrStdin()
	if !details && format == render.FormatText && len(v.Details) > 0 && isTerminal(in) && isTerminal(out) {
		details = promptConfirm(in, out, fmt.Sprintf("Show detailed analysis (%d claims)?", len(v.Details)))
	}
	var toggle render.DetailsToggle
	if details {
		toggle.Toggle()
	}

	return render.Write(out, v, render.Options{
		Format:   format,
		Toggle:   toggle,
		Terminal: isTerminal(out),
		Width:    terminalWidth(out),
	})
}

// newRunner builds a workflow runner over e. stop ends the progress display
// and must be called before anything else is printed.
func newRunner(cmd *cobra.Command, g *globalOptions, e *env, claims []string) (*workflow.Runner, func()) {
	progress, stop := progressWriter(cmd)
	return workflow.New(workflow.Config{
		Backend:   e.client,
		Selector:  newSelector(cmd, claims, progress),
		Cache:     e.cache,
		Events:    e.events,
		BaseURL:   e.client.BaseURL(),
		Interval:  g.interval(e.cfg),
		Progress:  progress,
		MaxClaims: e.cfg.Selection.MaxClaims,
	}), stop
}

// progressWriter returns where poll progress goes. On a terminal it is a
// spinner; stop must be called once the flow ends.
func progressWriter(cmd *cobra.Command) (w io.Writer, stop func()) {
	errOut := cmd.ErrOrStderr()
	if !isTerminal(errOut) {
		return errOut, func() {}
	}
	s := spinner.Start(errOut, "Waiting for the analysis…")
	return s, s.Stop
}

// pauser is implemented by progress writers that draw on the terminal.
type pauser interface {
	Pause()
	Resume()
}

// newSelector picks how claims are chosen: from --claims when given,
// interactively on a terminal, otherwise not at all. progress is paused while
// the prompt is shown.
func newSelector(cmd *cobra.Command, claims []string, progress io.Writer) workflow.Selector {
	if len(claims) > 0 {
		return claimsSelector(claims)
	}
	if !isTerminal(cmd.InOrStdin()) {
		return nil
	}
	return workflow.SelectorFunc(func(_ context.Context, _ string, list *selection.Checklist) ([]models.ClaimRef, error) {
		if p, ok := progress.(pauser); ok {
			p.Pause()
			defer p.Resume()
		}
		if err := selection.Prompt(cmd.InOrStdin(), cmd.OutOrStdout(), list); err != nil {
			return nil, err
		}
		return list.Submission()
	})
}

// claimsSelector applies --claims values: all numbers are one-based
// positions, anything else is matched as claim hashes.
func claimsSelector(claims []string) workflow.Selector {
	return workflow.SelectorFunc(func(_ context.Context, _ string, list *selection.Checklist) ([]models.ClaimRef, error) {
		positions, ok := parsePositions(claims)
		var err error
		if ok {
			err = list.ApplyIndexes(positions)
		} else {
			err = list.ApplyHashes(claims)
		}
		if err != nil {
			return nil, err
		}
		return list.Submission()
	})
}

func parsePositions(values []string) ([]int, bool) {
	out := make([]int, 0, len(values))
	for _, v := range values {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

func selectionHint(err error) error {
	if errors.Is(err, workflow.ErrSelectionRequired) {
		return fmt.Errorf("%w; pass --claims with positions or hashes to choose non-interactively", err)
	}
	return err
}
