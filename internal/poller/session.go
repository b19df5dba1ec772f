package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/maxradov/propacondom-app/internal/models"
	"github.com/maxradov/propacondom-app/internal/session"
)

// DefaultInterval is the delay between status queries.
const DefaultInterval = 3 * time.Second

// ErrCancelled is the Outcome error of a poll that was cancelled or superseded.
var ErrCancelled = errors.New("poll cancelled")

// StatusFetcher queries a task's status once.
type StatusFetcher interface {
	TaskStatus(ctx context.Context, taskID string) (*models.TaskStatus, error)
}

// PollError is a transport, HTTP or decoding failure while polling. Polling
// stops on the first one.
type PollError struct {
	Err error
}

func (e *PollError) Error() string {
	return "Polling error: " + e.Err.Error()
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// Outcome is how a poll ended.
type Outcome struct {
	State State
	// Payload is set when State is Succeeded.
	Payload *models.Payload
	// Reason is the server-provided failure reason for a task FAILURE.
	Reason string
	// Err is a *PollError, or ErrCancelled when the poll was stopped.
	Err error
}

// Poll is one scheduled status loop for a task.
type Poll struct {
	TaskID string
	Epoch  string

	cancel context.CancelFunc
	done   chan struct{}
	log    *ProgressLog

	mu      sync.Mutex
	state   State
	outcome Outcome
}

// State returns the poll's current state.
func (p *Poll) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Progress returns the status messages displayed so far.
func (p *Poll) Progress() []string {
	return p.log.Lines()
}

// Done is closed once the poll's goroutine has exited.
func (p *Poll) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the poll ends or ctx is done.
func (p *Poll) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (p *Poll) apply(e Event) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = Transition(p.state, e)
	return p.state
}

func (p *Poll) finish(e Event, o Outcome) Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = Transition(p.state, e)
	o.State = p.state
	p.outcome = o
	return o
}

// Session owns at most one active poll. Starting a new poll stops the previous
// one and waits for its goroutine to exit first.
type Session struct {
	fetcher  StatusFetcher
	interval time.Duration
	logger   *slog.Logger
	events   session.Logger
	progress io.Writer

	mu      sync.Mutex
	active  *Poll
	current atomic.Pointer[string]
}

// Option configures a Session.
type Option func(*Session)

// WithInterval sets the delay between status queries.
func WithInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithEventLog mirrors poll events to an NDJSON session log.
func WithEventLog(l session.Logger) Option {
	return func(s *Session) { s.events = l }
}

// WithProgressWriter sets where status messages are written as they arrive.
func WithProgressWriter(w io.Writer) Option {
	return func(s *Session) { s.progress = w }
}

// NewSession returns an idle session.
func NewSession(f StatusFetcher, opts ...Option) *Session {
	s := &Session{
		fetcher:  f,
		interval: DefaultInterval,
		logger:   slog.Default(),
		events:   session.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins polling taskID. Any poll already running is cancelled and
// drained before the new one is scheduled.
func (s *Session) Start(ctx context.Context, taskID string) *Poll {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	pctx, cancel := context.WithCancel(ctx)
	p := &Poll{
		TaskID: taskID,
		Epoch:  uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
		log:    NewProgressLog(s.progress),
	}
	p.apply(EventStart)
	s.active = p
	s.current.Store(&p.Epoch)

	s.logger.Debug("poll started", "task_id", taskID, "epoch", p.Epoch, "interval", s.interval)
	s.logEvent(session.EventPollStart, session.PollStartData(taskID, p.Epoch, s.interval.Milliseconds()))

	go s.run(pctx, p)
	return p
}

// Cancel stops the active poll, if any, and waits for it to exit.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Active returns the poll started last, or nil.
func (s *Session) Active() *Poll {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) stopLocked() {
	if s.active == nil {
		return
	}
	s.current.Store(nil)
	s.active.cancel()
	<-s.active.done
	s.active = nil
}

func (s *Session) isCurrent(epoch string) bool {
	cur := s.current.Load()
	return cur != nil && *cur == epoch
}

func (s *Session) run(ctx context.Context, p *Poll) {
	defer close(p.done)
	defer p.cancel()

	started := time.Now()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.complete(p, started, EventCancel, Outcome{Err: ErrCancelled})
			return
		case <-ticker.C:
		}

		st, err := s.fetcher.TaskStatus(ctx, p.TaskID)

		if !s.isCurrent(p.Epoch) || p.State() != Polling {
			s.logger.Debug("dropping stale status response", "task_id", p.TaskID, "epoch", p.Epoch)
			s.logEvent(session.EventStaleResponse, session.StaleResponseData(p.TaskID, p.Epoch))
			s.complete(p, started, EventCancel, Outcome{Err: ErrCancelled})
			return
		}
		if ctx.Err() != nil {
			s.complete(p, started, EventCancel, Outcome{Err: ErrCancelled})
			return
		}

		if err != nil {
			s.complete(p, started, EventPollError, Outcome{Err: &PollError{Err: err}})
			return
		}

		switch st.Status {
		case models.TaskSuccess:
			s.completeSuccess(p, started, st)
			return
		case models.TaskFailure:
			s.complete(p, started, EventFailure, Outcome{Reason: st.FailureReason()})
			return
		default:
			p.apply(EventProgress)
			msg := st.Progress().StatusMessage
			if p.log.Append(msg) {
				s.logEvent(session.EventPollProgress, session.PollProgressData(p.TaskID, msg))
			}
		}
	}
}

func (s *Session) completeSuccess(p *Poll, started time.Time, st *models.TaskStatus) {
	payload, err := models.DecodePayload(st.Result)
	var payloadErr *models.PayloadError
	switch {
	case errors.As(err, &payloadErr):
		s.complete(p, started, EventFailure, Outcome{Reason: payloadErr.Message})
	case err != nil:
		s.complete(p, started, EventPollError, Outcome{Err: &PollError{Err: err}})
	default:
		s.complete(p, started, EventSuccess, Outcome{Payload: payload})
	}
}

func (s *Session) complete(p *Poll, started time.Time, e Event, o Outcome) {
	o = p.finish(e, o)
	elapsed := time.Since(started)

	reason := o.Reason
	if o.Err != nil && !errors.Is(o.Err, ErrCancelled) {
		reason = o.Err.Error()
		s.logEvent(session.EventError, session.ErrorData(reason, map[string]any{"task_id": p.TaskID}))
	}
	s.logger.Debug("poll finished", "task_id", p.TaskID, "state", o.State.String(), "event", e.String(), "elapsed", elapsed)
	s.logEvent(session.EventPollComplete, session.PollCompleteData(p.TaskID, o.State.String(), reason, elapsed.Milliseconds()))
}

func (s *Session) logEvent(t session.EventType, data map[string]any) {
	if err := s.events.Log(session.NewEvent(t, data)); err != nil {
		s.logger.Warn("writing session event", "type", string(t), "error", err)
	}
}
