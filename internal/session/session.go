package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-studygen/internal/domain"
	"github.com/phrazzld/scry-studygen/internal/events"
	"github.com/phrazzld/scry-studygen/internal/redact"
)

// Runner executes the question pipeline. Validate must be pure.
type Runner interface {
	Validate(rc domain.RequestContext) (domain.RequestContext, error)
	Run(ctx context.Context, rc domain.RequestContext) ([]domain.QuestionRecord, error)
}

// Session is one user's state machine. All methods are safe for concurrent
// use. Event handlers are called in transition order, outside the state
// lock, and must not call back into the session synchronously.
type Session struct {
	id      uuid.UUID
	runner  Runner
	emitter events.EventEmitter
	logger  *slog.Logger
	now     func() time.Time
	baseCtx context.Context

	mu         sync.Mutex
	state      domain.SessionState
	seq        uint64
	cancel     context.CancelFunc
	closed     bool
	done       chan struct{}
	lastActive time.Time

	// publishMu orders event delivery to match transition order
	publishMu sync.Mutex
}

// Option configures a Session.
type Option func(*Session)

// WithID sets the session id. A random id is used otherwise.
func WithID(id uuid.UUID) Option {
	return func(s *Session) { s.id = id }
}

// WithEmitter publishes a StateChanged for every applied transition.
func WithEmitter(e events.EventEmitter) Option {
	return func(s *Session) { s.emitter = e }
}

// WithClock overrides time.Now for activity tracking.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithBaseContext sets the parent of every submission's context.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Session) { s.baseCtx = ctx }
}

// New creates an idle session.
func New(runner Runner, logger *slog.Logger, opts ...Option) (*Session, error) {
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	s := &Session{
		id:      uuid.New(),
		runner:  runner,
		now:     time.Now,
		baseCtx: context.Background(),
		state:   domain.NewIdleState(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.With("component", "session", "session_id", s.id.String())
	s.lastActive = s.now()
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current snapshot.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastActive returns the time of the last call to a transition or Touch.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Touch records client activity without changing state.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
}

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Submit validates rc and starts a pipeline run. An invalid context returns
// a *domain.InputValidationError and leaves the state untouched. Submitting
// while loading is rejected with domain.ErrInvalidTransition.
func (s *Session) Submit(rc domain.RequestContext) (*Ticket, error) {
	rc, err := s.runner.Validate(rc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.lastActive = s.now()
	if s.state.Status == domain.StatusLoading {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: submission already in flight", domain.ErrInvalidTransition)
	}

	s.seq++
	seq := s.seq
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancel = cancel
	ticket := newTicket(seq)

	next := domain.SessionState{Status: domain.StatusLoading, Selected: domain.NoSelection, Seq: seq}
	s.publish(next)

	s.logger.Info("submission started", "seq", seq, "subject", rc.Subject)
	go s.run(ctx, cancel, rc, ticket)
	return ticket, nil
}

func (s *Session) run(ctx context.Context, cancel context.CancelFunc, rc domain.RequestContext, ticket *Ticket) {
	defer cancel()
	items, err := s.runner.Run(ctx, rc)
	s.complete(ticket, items, err)
}

func (s *Session) complete(ticket *Ticket, items []domain.QuestionRecord, runErr error) {
	s.mu.Lock()
	if s.closed || ticket.Seq != s.seq {
		current := s.seq
		s.mu.Unlock()
		s.logger.Debug("dropping stale completion", "seq", ticket.Seq, "current_seq", current)
		ticket.resolve(domain.SessionState{}, fmt.Errorf("%w: submission %d was superseded", domain.ErrCancelled, ticket.Seq))
		return
	}
	s.cancel = nil

	var next domain.SessionState
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			runErr = fmt.Errorf("%w: %v", domain.ErrCancelled, runErr)
		}
		next = failedState(runErr, s.seq)
		s.logger.Warn("submission failed", "seq", s.seq, "error_kind", domain.Kind(runErr), "error", runErr)
	} else {
		next = domain.SessionState{Status: domain.StatusReady, Items: items, Selected: domain.NoSelection, Seq: s.seq}
		s.logger.Info("submission completed", "seq", s.seq, "records", len(items))
	}
	s.publish(next)
	ticket.resolve(next, nil)
}

// Select marks the record with id as selected and hides its answer. It is
// allowed only in the ready status for a record in the current items.
func (s *Session) Select(id int) (domain.SessionState, error) {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return domain.SessionState{}, err
	}
	s.lastActive = s.now()
	if s.state.Status != domain.StatusReady {
		state := s.state
		s.mu.Unlock()
		return state, fmt.Errorf("%w: cannot select while %s", domain.ErrInvalidTransition, state.Status)
	}
	idx := s.state.IndexOf(id)
	if idx < 0 {
		state := s.state
		s.mu.Unlock()
		return state, fmt.Errorf("%w: %w: id %d", domain.ErrInvalidTransition, ErrUnknownRecord, id)
	}

	next := s.state
	next.Selected = idx
	next.Revealed = false
	s.publish(next)
	return next, nil
}

// Reveal shows the answer of the selected record. Revealing twice is a
// no-op; revealing without a selection is rejected.
func (s *Session) Reveal() (domain.SessionState, error) {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return domain.SessionState{}, err
	}
	s.lastActive = s.now()
	if _, ok := s.state.Selection(); !ok {
		state := s.state
		s.mu.Unlock()
		return state, fmt.Errorf("%w: nothing selected", domain.ErrInvalidTransition)
	}
	if s.state.Revealed {
		state := s.state
		s.mu.Unlock()
		return state, nil
	}

	next := s.state
	next.Revealed = true
	s.publish(next)
	return next, nil
}

// Cancel aborts the in-flight submission and moves to failed. Its late
// completion, if any, is discarded.
func (s *Session) Cancel() (domain.SessionState, error) {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return domain.SessionState{}, err
	}
	s.lastActive = s.now()
	if s.state.Status != domain.StatusLoading {
		state := s.state
		s.mu.Unlock()
		return state, fmt.Errorf("%w: nothing to cancel while %s", domain.ErrInvalidTransition, state.Status)
	}

	cancelled := s.seq
	s.seq++
	s.stopInFlight()
	next := failedState(fmt.Errorf("%w by user", domain.ErrCancelled), s.seq)
	s.publish(next)
	s.logger.Info("submission cancelled", "seq", cancelled)
	return next, nil
}

// Close tears the session down. Any in-flight call is cancelled and every
// later transition fails with domain.ErrSessionClosed. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.seq++
	s.stopInFlight()
	close(s.done)
	s.logger.Info("session closed")
}

func (s *Session) stopInFlight() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) checkOpen() error {
	if s.closed {
		return domain.ErrSessionClosed
	}
	return nil
}

// publish replaces the state and delivers the event. It must be called
// with s.mu held and releases it.
func (s *Session) publish(next domain.SessionState) {
	s.state = next
	s.publishMu.Lock()
	s.mu.Unlock()
	defer s.publishMu.Unlock()

	if s.emitter == nil {
		return
	}
	if err := s.emitter.EmitEvent(context.Background(), events.NewStateChanged(s.id, next)); err != nil {
		s.logger.Warn("state change listener failed", "error", err)
	}
}

func failedState(err error, seq uint64) domain.SessionState {
	return domain.SessionState{
		Status:       domain.StatusFailed,
		Selected:     domain.NoSelection,
		ErrorMessage: redact.String(domain.Describe(err)),
		Seq:          seq,
	}
}
