package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-studygen/internal/events"
)

// Manager owns every live session. Sessions never share state; the
// manager only indexes them and expires the idle ones.
type Manager struct {
	runner      Runner
	emitter     events.EventEmitter
	idleTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time

	baseCtx context.Context
	stop    context.CancelFunc

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerClock overrides time.Now for idle tracking.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates an empty registry. emitter may be nil.
func NewManager(runner Runner, emitter events.EventEmitter, idleTimeout time.Duration, logger *slog.Logger, opts ...ManagerOption) (*Manager, error) {
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if idleTimeout <= 0 {
		return nil, errors.New("idle timeout must be positive")
	}

	ctx, stop := context.WithCancel(context.Background())
	m := &Manager{
		runner:      runner,
		emitter:     emitter,
		idleTimeout: idleTimeout,
		logger:      logger.With("component", "session_manager"),
		now:         time.Now,
		baseCtx:     ctx,
		stop:        stop,
		sessions:    make(map[uuid.UUID]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Create registers and returns a new idle session.
func (m *Manager) Create() (*Session, error) {
	opts := []Option{
		WithClock(m.now),
		WithBaseContext(m.baseCtx),
	}
	if m.emitter != nil {
		opts = append(opts, WithEmitter(m.emitter))
	}
	s, err := New(m.runner, m.logger, opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", s.ID().String(), "active_sessions", count)
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete closes and removes the session with id.
func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap closes and removes every session idle for longer than the idle
// timeout, returning how many were removed.
func (m *Manager) Reap() int {
	cutoff := m.now().Add(-m.idleTimeout)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		m.logger.Info("expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Run reaps idle sessions periodically until ctx is done, then closes
// every remaining session.
func (m *Manager) Run(ctx context.Context) error {
	interval := m.idleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Shutdown()
			return nil
		case <-ticker.C:
			m.Reap()
		}
	}
}

// Shutdown closes every session and cancels all in-flight submissions.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	m.stop()
	m.logger.Info("session manager stopped", "closed_sessions", len(sessions))
}
