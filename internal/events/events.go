package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-studygen/internal/domain"
)

// StateChanged is emitted after a session replaces its state.
type StateChanged struct {
	// ID uniquely identifies the event
	ID uuid.UUID

	// SessionID identifies the session whose state changed
	SessionID uuid.UUID

	// State is the snapshot that was just published
	State domain.SessionState

	// CreatedAt is when the transition was applied
	CreatedAt time.Time
}

// NewStateChanged creates an event for a published snapshot.
func NewStateChanged(sessionID uuid.UUID, state domain.SessionState) *StateChanged {
	return &StateChanged{
		ID:        uuid.New(),
		SessionID: sessionID,
		State:     state,
		CreatedAt: time.Now().UTC(),
	}
}

// EventHandler processes StateChanged events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *StateChanged) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *StateChanged) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *StateChanged) error {
	return f(ctx, event)
}

// EventEmitter publishes StateChanged events.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *StateChanged) error
}
