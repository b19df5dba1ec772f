// Package workflow runs the end-to-end fact-check flows: submit, poll, route
// the payload, optionally select claims, poll again and load the report.
package workflow

//go:generate go tool mockgen -source=workflow.go -destination=mocks_test.go -package=workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/maxradov/propacondom-app/internal/cache"
	"github.com/maxradov/propacondom-app/internal/client"
	"github.com/maxradov/propacondom-app/internal/models"
	"github.com/maxradov/propacondom-app/internal/poller"
	"github.com/maxradov/propacondom-app/internal/selection"
	"github.com/maxradov/propacondom-app/internal/session"
	"golang.org/x/sync/errgroup"
)

// Backend is the part of the API client the workflow drives.
type Backend interface {
	StartAnalysis(ctx context.Context, input, lang string) (*client.StartResult, error)
	TaskStatus(ctx context.Context, taskID string) (*models.TaskStatus, error)
	FactCheckSelected(ctx context.Context, analysisID string, claims []models.ClaimRef) (string, error)
	Report(ctx context.Context, analysisID string) (*models.Payload, error)
}

// Selector picks the claims to verify from a checklist.
type Selector interface {
	Select(ctx context.Context, analysisID string, list *selection.Checklist) ([]models.ClaimRef, error)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context, analysisID string, list *selection.Checklist) ([]models.ClaimRef, error)

// Select calls f.
func (f SelectorFunc) Select(ctx context.Context, analysisID string, list *selection.Checklist) ([]models.ClaimRef, error) {
	return f(ctx, analysisID, list)
}

// ErrNoClaims is returned when a selection payload has no candidates.
var ErrNoClaims = errors.New("Could not extract any claims to check.") //nolint:staticcheck // shown to the user verbatim

// ErrAllChecked is returned when every extracted claim already has a verdict.
var ErrAllChecked = errors.New("all extracted claims have already been checked")

// ErrSelectionRequired is returned when a payload needs claim selection and
// the runner has no Selector.
var ErrSelectionRequired = errors.New("analysis is waiting for claim selection")

// TaskFailedError is a task that ended in FAILURE.
type TaskFailedError struct {
	TaskID string
	Reason string
}

func (e *TaskFailedError) Error() string {
	return e.Reason
}

// Result is the outcome of a flow.
type Result struct {
	AnalysisID string
	Report     *models.ReportPayload
	// Selection is set instead of Report when a pending selection was not
	// resolved (see OpenMany).
	Selection *models.SelectionPayload
	// Cached is true when Report came from the local cache.
	Cached bool
}

// Config holds the Runner's collaborators.
type Config struct {
	Backend  Backend
	Selector Selector
	Cache    *cache.Cache
	Events   session.Logger
	Logger   *slog.Logger
	// BaseURL scopes cache keys to a backend.
	BaseURL   string
	Interval  time.Duration
	Progress  io.Writer
	MaxClaims int
}

// Runner executes flows. It keeps one poll session, so starting a flow
// cancels any poll left over from the previous one.
type Runner struct {
	backend   Backend
	selector  Selector
	cache     *cache.Cache
	events    session.Logger
	logger    *slog.Logger
	baseURL   string
	maxClaims int
	polls     *poller.Session
}

// New creates a Runner.
func New(cfg Config) *Runner {
	r := &Runner{
		backend:   cfg.Backend,
		selector:  cfg.Selector,
		cache:     cfg.Cache,
		events:    cfg.Events,
		logger:    cfg.Logger,
		baseURL:   cfg.BaseURL,
		maxClaims: cfg.MaxClaims,
	}
	if r.cache == nil {
		r.cache = cache.New("")
	}
	if r.events == nil {
		r.events = session.NopLogger{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.polls = poller.NewSession(cfg.Backend,
		poller.WithInterval(cfg.Interval),
		poller.WithLogger(r.logger),
		poller.WithEventLog(r.events),
		poller.WithProgressWriter(cfg.Progress),
	)
	return r
}

// Check submits input for analysis and follows it to a report.
func (r *Runner) Check(ctx context.Context, input, lang string) (res *Result, err error) {
	done := r.begin("check", lang)
	defer func() { done(res, err) }()

	start, err := r.backend.StartAnalysis(ctx, input, lang)
	if err != nil {
		return nil, err
	}
	if start.AnalysisID != "" {
		r.logger.Debug("analysis already exists", "analysis_id", start.AnalysisID)
		return r.open(ctx, start.AnalysisID, false)
	}

	payload, err := r.await(ctx, start.TaskID)
	if err != nil {
		return nil, err
	}
	return r.route(ctx, payload, true)
}

// Open loads an analysis by id, serving completed reports from the cache.
func (r *Runner) Open(ctx context.Context, analysisID string) (res *Result, err error) {
	done := r.begin("report", "")
	defer func() { done(res, err) }()
	return r.open(ctx, analysisID, false)
}

// OpenMany fetches several analyses concurrently, at most limit at a time.
// Pending selections are returned unresolved. Results keep the order of ids.
func (r *Runner) OpenMany(ctx context.Context, ids []string, limit int) ([]*Result, error) {
	results := make([]*Result, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range ids {
		g.Go(func() error {
			res, err := r.fetch(gctx, id, false)
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// VerifySelected submits claims of an analysis for verification, waits for
// the task and reloads the report.
func (r *Runner) VerifySelected(ctx context.Context, analysisID string, refs []models.ClaimRef) (res *Result, err error) {
	done := r.begin("select", "")
	defer func() { done(res, err) }()
	return r.verify(ctx, analysisID, refs)
}

// CheckRemaining offers the claims of an analysis that have no verdict yet
// and verifies the chosen ones. A pending selection is resolved as is; for a
// completed report the candidates are its unchecked extracted claims.
func (r *Runner) CheckRemaining(ctx context.Context, analysisID string) (res *Result, err error) {
	done := r.begin("select", "")
	defer func() { done(res, err) }()

	cur, err := r.fetch(ctx, analysisID, false)
	if err != nil {
		return nil, err
	}
	if cur.Selection != nil {
		return r.selectAndVerify(ctx, cur.Selection)
	}
	remaining := selection.Unchecked(cur.Report.ExtractedClaims, cur.Report.DetailedResults)
	if len(remaining) == 0 {
		return nil, ErrAllChecked
	}
	return r.choose(ctx, analysisID, selection.FromExtracted(remaining, r.maxClaims))
}

// Cancel stops any poll in progress.
func (r *Runner) Cancel() {
	r.polls.Cancel()
}

func (r *Runner) open(ctx context.Context, analysisID string, reload bool) (*Result, error) {
	res, err := r.fetch(ctx, analysisID, reload)
	if err != nil {
		return nil, err
	}
	if res.Selection != nil {
		return r.selectAndVerify(ctx, res.Selection)
	}
	return res, nil
}

// fetch loads an analysis without resolving a pending selection.
func (r *Runner) fetch(ctx context.Context, analysisID string, reload bool) (*Result, error) {
	key := cache.Key(r.baseURL, analysisID)
	if !reload {
		if rep, ok := r.cache.Get(key); ok {
			r.logger.Debug("report served from cache", "analysis_id", analysisID)
			return &Result{AnalysisID: analysisID, Report: rep, Cached: true}, nil
		}
	}

	payload, err := r.backend.Report(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	switch payload.Kind {
	case models.KindReport:
		r.store(analysisID, payload.Report)
		return &Result{AnalysisID: analysisID, Report: payload.Report}, nil
	case models.KindSelection:
		return &Result{AnalysisID: analysisID, Selection: payload.Selection}, nil
	default:
		return nil, fmt.Errorf("report %s: unexpected %s payload", analysisID, payload.Kind)
	}
}

// route handles a successful task payload. A reference payload is followed
// by one report fetch.
func (r *Runner) route(ctx context.Context, payload *models.Payload, followRefs bool) (*Result, error) {
	switch payload.Kind {
	case models.KindReport:
		r.store(payload.AnalysisID, payload.Report)
		return &Result{AnalysisID: payload.AnalysisID, Report: payload.Report}, nil
	case models.KindSelection:
		return r.selectAndVerify(ctx, payload.Selection)
	case models.KindReference:
		if !followRefs {
			return nil, fmt.Errorf("analysis %s: report is not available", payload.AnalysisID)
		}
		return r.open(ctx, payload.AnalysisID, true)
	default:
		return nil, fmt.Errorf("unexpected %s payload", payload.Kind)
	}
}

func (r *Runner) selectAndVerify(ctx context.Context, sel *models.SelectionPayload) (*Result, error) {
	if len(sel.ClaimsForSelection) == 0 {
		return nil, ErrNoClaims
	}
	return r.choose(ctx, sel.ID, selection.NewChecklist(sel.ClaimsForSelection, r.maxClaims))
}

func (r *Runner) choose(ctx context.Context, analysisID string, list *selection.Checklist) (*Result, error) {
	if list.Selectable() == 0 {
		return nil, selection.ErrNoSelectable
	}
	if r.selector == nil {
		return nil, fmt.Errorf("%s: %w", analysisID, ErrSelectionRequired)
	}
	refs, err := r.selector.Select(ctx, analysisID, list)
	if err != nil {
		return nil, err
	}
	return r.verify(ctx, analysisID, refs)
}

func (r *Runner) verify(ctx context.Context, analysisID string, refs []models.ClaimRef) (*Result, error) {
	if len(refs) == 0 {
		return nil, selection.ErrNothingSelected
	}
	r.logEvent(session.EventSelection, session.SelectionData(analysisID, len(refs)))

	taskID, err := r.backend.FactCheckSelected(ctx, analysisID, refs)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Delete(cache.Key(r.baseURL, analysisID)); err != nil {
		r.logger.Warn("invalidating cached report", "analysis_id", analysisID, "error", err)
	}

	if _, err := r.await(ctx, taskID); err != nil {
		return nil, err
	}
	return r.open(ctx, analysisID, true)
}

// await polls taskID to completion and maps failures to errors.
func (r *Runner) await(ctx context.Context, taskID string) (*models.Payload, error) {
	p := r.polls.Start(ctx, taskID)
	o, err := p.Wait(ctx)
	if err != nil {
		r.polls.Cancel()
		return nil, err
	}

	switch o.State {
	case poller.Succeeded:
		return o.Payload, nil
	case poller.Failed:
		if o.Err != nil {
			return nil, o.Err
		}
		return nil, &TaskFailedError{TaskID: taskID, Reason: o.Reason}
	default:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, o.Err
	}
}

func (r *Runner) store(analysisID string, rep *models.ReportPayload) {
	if analysisID == "" || rep == nil {
		return
	}
	if err := r.cache.Put(cache.Key(r.baseURL, analysisID), rep); err != nil {
		r.logger.Warn("caching report", "analysis_id", analysisID, "error", err)
	}
}

func (r *Runner) begin(command, lang string) func(*Result, error) {
	started := time.Now()
	r.logEvent(session.EventSessionStart, session.SessionStartData(command, r.baseURL, lang))
	return func(res *Result, err error) {
		outcome, id := "report", ""
		if res != nil {
			id = res.AnalysisID
		}
		if err != nil {
			outcome = "error"
			r.logEvent(session.EventError, session.ErrorData(err.Error(), map[string]any{"command": command}))
		}
		r.logEvent(session.EventSessionEnd, session.SessionCompleteData(id, outcome, time.Since(started).Milliseconds()))
	}
}

func (r *Runner) logEvent(t session.EventType, data map[string]any) {
	if err := r.events.Log(session.NewEvent(t, data)); err != nil {
		r.logger.Warn("writing session event", "type", string(t), "error", err)
	}
}
