package events

import (
	"context"
	"log/slog"
	"sync"
)

type registration struct {
	id      uint64
	handler EventHandler
}

// InMemoryEventEmitter fans events out to registered handlers synchronously,
// in registration order.
type InMemoryEventEmitter struct {
	handlers []registration
	nextID   uint64
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEventEmitter creates an emitter with no handlers.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	return &InMemoryEventEmitter{
		logger: logger.With("component", "in_memory_event_emitter"),
	}
}

// RegisterHandler adds handler and returns a function that removes it.
// The returned function is safe to call more than once.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) (unregister func()) {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.handlers = append(e.handlers, registration{id: id, handler: handler})
	count := len(e.handlers)
	e.mu.Unlock()

	e.logger.Debug("registered event handler", "handler_count", count)

	var once sync.Once
	return func() {
		once.Do(func() { e.unregister(id) })
	}
}

func (e *InMemoryEventEmitter) unregister(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, r := range e.handlers {
		if r.id == id {
			e.handlers = append(e.handlers[:i:i], e.handlers[i+1:]...)
			break
		}
	}
	e.logger.Debug("unregistered event handler", "handler_count", len(e.handlers))
}

// HandlerCount returns the number of registered handlers.
func (e *InMemoryEventEmitter) HandlerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers)
}

// EmitEvent delivers event to every handler registered at the time of the
// call. All handlers run even if one fails; the first error is returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *StateChanged) error {
	e.mu.RLock()
	handlers := make([]registration, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	var firstErr error
	for i, r := range handlers {
		if err := r.handler.HandleEvent(ctx, event); err != nil {
			e.logger.ErrorContext(ctx, "handler failed to process event",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"session_id", event.SessionID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
