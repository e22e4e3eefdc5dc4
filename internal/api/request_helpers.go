package api

import (
	"net/http"

	"github.com/phrazzld/scry-studygen/internal/api/middleware"
	"github.com/phrazzld/scry-studygen/internal/platform/logger"
	"github.com/phrazzld/scry-studygen/internal/session"
	"github.com/phrazzld/scry-studygen/internal/token"
)

// sessionFromRequest resolves the authenticated session. It writes the
// error response and returns false when the session cannot be used.
func (h *SessionHandler) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, ok := middleware.GetSessionID(r)
	if !ok {
		logger.FromContextOrDefault(r.Context()).Warn("session ID not found in request context")
		HandleAPIError(w, r, token.ErrMissingToken)
		return nil, false
	}

	s, err := h.sessions.Get(id)
	if err != nil {
		HandleAPIError(w, r, err)
		return nil, false
	}
	return s, true
}
