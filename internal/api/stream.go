package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phrazzld/scry-studygen/internal/domain"
	"github.com/phrazzld/scry-studygen/internal/events"
	"github.com/phrazzld/scry-studygen/internal/platform/logger"
	"github.com/phrazzld/scry-studygen/internal/presenter"
)

// StreamConfig holds the websocket keepalive settings.
type StreamConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
}

// DefaultStreamConfig returns the production keepalive settings.
func DefaultStreamConfig() StreamConfig {
	pongWait := 60 * time.Second
	return StreamConfig{
		WriteWait:      10 * time.Second,
		PongWait:       pongWait,
		PingPeriod:     (pongWait * 9) / 10,
		MaxMessageSize: 512,
	}
}

// WithStreamConfig overrides the websocket keepalive settings.
func (h *SessionHandler) WithStreamConfig(cfg StreamConfig) *SessionHandler {
	h.stream = cfg
	return h
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// latestState holds the newest published snapshot for one stream. Handlers
// overwrite it and signal; the writer drains whatever is newest, so a slow
// client never blocks the emitter and always converges on the current view.
type latestState struct {
	mu     sync.Mutex
	state  domain.SessionState
	notify chan struct{}
}

func newLatestState() *latestState {
	return &latestState{notify: make(chan struct{}, 1)}
}

func (l *latestState) set(state domain.SessionState) {
	l.mu.Lock()
	l.state = state
	l.mu.Unlock()
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

func (l *latestState) get() domain.SessionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Stream handles GET /api/session/stream. It upgrades to a websocket,
// pushes the current view, then a fresh view after every transition until
// the client disconnects or the session ends.
func (h *SessionHandler) Stream(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}
	log := logger.FromContextOrDefault(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	latest := newLatestState()
	unregister := h.subscriber.RegisterHandler(events.HandlerFunc(func(_ context.Context, e *events.StateChanged) error {
		if e.SessionID == s.ID() {
			latest.set(e.State)
		}
		return nil
	}))
	defer unregister()

	// registered before the first snapshot so no transition is missed
	latest.set(s.State())
	s.Touch()
	log.Debug("stream opened")

	closed := make(chan struct{})
	go h.readPump(conn, closed)

	ticker := time.NewTicker(h.stream.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-latest.notify:
			if err := h.writeView(conn, presenter.Present(latest.get())); err != nil {
				log.Debug("stream write failed", "error", err)
				return
			}
		case <-ticker.C:
			s.Touch()
			_ = conn.SetWriteDeadline(time.Now().Add(h.stream.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(h.stream.WriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
			log.Debug("stream closed: session ended")
			return
		case <-closed:
			log.Debug("stream closed by client")
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *SessionHandler) writeView(conn *websocket.Conn, vm presenter.ViewModel) error {
	payload, err := json.Marshal(vm)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(h.stream.WriteWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// readPump consumes control frames so pongs and close frames are handled.
// Client messages are ignored.
func (h *SessionHandler) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(h.stream.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.stream.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.stream.PongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", "error", err)
			}
			return
		}
	}
}
