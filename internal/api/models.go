package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-studygen/internal/presenter"
)

// CreateSessionResponse is returned when a session is created.
type CreateSessionResponse struct {
	SessionID uuid.UUID           `json:"session_id"`
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	View      presenter.ViewModel `json:"view"`
}

// SubmitResponse is returned when a submission is accepted.
type SubmitResponse struct {
	Seq  uint64              `json:"seq"`
	View presenter.ViewModel `json:"view"`
}

// SelectRequest picks a question by its record id.
type SelectRequest struct {
	ID *int `json:"id" validate:"required"`
}
