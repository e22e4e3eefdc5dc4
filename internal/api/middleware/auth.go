package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-studygen/internal/api/shared"
	"github.com/phrazzld/scry-studygen/internal/platform/logger"
	"github.com/phrazzld/scry-studygen/internal/token"
)

// SessionAuth resolves the session token on a request to a session ID.
type SessionAuth struct {
	tokens token.Service
}

// NewSessionAuth creates a new SessionAuth with the given token service.
func NewSessionAuth(tokens token.Service) *SessionAuth {
	return &SessionAuth{tokens: tokens}
}

// Authenticate requires a bearer token in the Authorization header.
func (m *SessionAuth) Authenticate(next http.Handler) http.Handler {
	return m.handler(next, false)
}

// AuthenticateStream also accepts the token as a "token" query parameter,
// since browsers cannot set headers on websocket handshakes.
func (m *SessionAuth) AuthenticateStream(next http.Handler) http.Handler {
	return m.handler(next, true)
}

func (m *SessionAuth) handler(next http.Handler, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := extractToken(r, allowQuery)
		if errors.Is(err, token.ErrMissingToken) {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Authorization required", err)
			return
		}
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid authorization format", err)
			return
		}

		claims, err := m.tokens.Validate(r.Context(), raw)
		if err != nil {
			switch {
			case errors.Is(err, token.ErrExpiredToken):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Token expired", err)
			case errors.Is(err, token.ErrInvalidToken), errors.Is(err, token.ErrMissingToken):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid token", err)
			default:
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), shared.SessionIDContextKey, claims.SessionID)
		log := logger.FromContextOrDefault(ctx).With("session_id", claims.SessionID.String())
		ctx = logger.WithLogger(ctx, log)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request, allowQuery bool) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", token.ErrInvalidToken
		}
		return parts[1], nil
	}
	if allowQuery {
		if raw := r.URL.Query().Get("token"); raw != "" {
			return raw, nil
		}
	}
	return "", token.ErrMissingToken
}

// GetSessionID extracts the session ID placed in the context by SessionAuth.
func GetSessionID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(shared.SessionIDContextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
