package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-studygen/internal/api/shared"
	"github.com/phrazzld/scry-studygen/internal/domain"
	"github.com/phrazzld/scry-studygen/internal/events"
	"github.com/phrazzld/scry-studygen/internal/platform/logger"
	"github.com/phrazzld/scry-studygen/internal/presenter"
	"github.com/phrazzld/scry-studygen/internal/session"
	"github.com/phrazzld/scry-studygen/internal/token"
)

// SessionStore is the subset of session.Manager the handlers use.
type SessionStore interface {
	Create() (*session.Session, error)
	Get(id uuid.UUID) (*session.Session, error)
	Delete(id uuid.UUID) error
}

// Subscriber delivers state changes to live streams.
type Subscriber interface {
	RegisterHandler(handler events.EventHandler) (unregister func())
}

// SessionHandler handles session-related HTTP requests.
type SessionHandler struct {
	sessions   SessionStore
	tokens     token.Service
	subscriber Subscriber
	logger     *slog.Logger
	stream     StreamConfig
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	sessions SessionStore,
	tokens token.Service,
	subscriber Subscriber,
	logger *slog.Logger,
) (*SessionHandler, error) {
	if sessions == nil || tokens == nil || subscriber == nil {
		return nil, errors.New("sessions, tokens and subscriber are required")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &SessionHandler{
		sessions:   sessions,
		tokens:     tokens,
		subscriber: subscriber,
		logger:     logger.With("component", "session_handler"),
		stream:     DefaultStreamConfig(),
	}, nil
}

// CreateSession handles POST /api/sessions.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create()
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	tok, err := h.tokens.Issue(r.Context(), s.ID())
	if err != nil {
		if delErr := h.sessions.Delete(s.ID()); delErr != nil {
			logger.FromContextOrDefault(r.Context()).Warn("failed to discard session", "error", delErr)
		}
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, CreateSessionResponse{
		SessionID: s.ID(),
		Token:     tok.Value,
		ExpiresAt: tok.ExpiresAt,
		View:      presenter.Present(s.State()),
	})
}

// GetSession handles GET /api/session.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}
	s.Touch()
	shared.RespondWithJSON(w, r, http.StatusOK, presenter.Present(s.State()))
}

// Submit handles POST /api/session/submit. The pipeline runs in the
// background; clients poll GetSession or watch the stream for the result.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var rc domain.RequestContext
	if err := shared.DecodeJSON(w, r, &rc); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	ticket, err := s.Submit(rc)
	if err != nil {
		HandleAPIError(w, r, withMessage(err, "A submission is already in progress"))
		return
	}

	logger.FromContextOrDefault(r.Context()).Info("submission accepted", "seq", ticket.Seq)
	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitResponse{
		Seq:  ticket.Seq,
		View: presenter.Present(s.State()),
	})
}

// Select handles POST /api/session/select.
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req SelectRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid id: required field", err)
		return
	}

	state, err := s.Select(*req.ID)
	if err != nil {
		HandleAPIError(w, r, withMessage(err, "No questions to select"))
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, presenter.Present(state))
}

// Reveal handles POST /api/session/reveal.
func (h *SessionHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	state, err := s.Reveal()
	if err != nil {
		HandleAPIError(w, r, withMessage(err, "No question selected"))
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, presenter.Present(state))
}

// Cancel handles POST /api/session/cancel.
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	state, err := s.Cancel()
	if err != nil {
		HandleAPIError(w, r, withMessage(err, "No submission in progress"))
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, presenter.Present(state))
}

// DeleteSession handles DELETE /api/session.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Delete(s.ID()); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	logger.FromContextOrDefault(r.Context()).Info("session deleted")
	w.WriteHeader(http.StatusNoContent)
}
