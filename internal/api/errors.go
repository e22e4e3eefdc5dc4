package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/scry-studygen/internal/api/shared"
	"github.com/phrazzld/scry-studygen/internal/domain"
	"github.com/phrazzld/scry-studygen/internal/session"
	"github.com/phrazzld/scry-studygen/internal/token"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrExpiredToken),
		errors.Is(err, token.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrInputValidation):
		return http.StatusBadRequest

	// checked before ErrInvalidTransition, which it is wrapped with
	case errors.Is(err, session.ErrUnknownRecord),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionClosed):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err. Input
// validation errors name the offending field; nothing else carries
// internal detail.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var ive *domain.InputValidationError
	switch {
	case errors.As(err, &ive):
		return "Invalid " + ive.Field + ": " + ive.Reason
	case errors.Is(err, domain.ErrInputValidation):
		return "Invalid request"
	case errors.Is(err, token.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, token.ErrInvalidToken), errors.Is(err, token.ErrMissingToken):
		return "Invalid token"
	case errors.Is(err, session.ErrUnknownRecord):
		return "Question not found"
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, domain.ErrSessionClosed):
		return "Session not found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return invalidTransitionMessage(err)
	default:
		return "An unexpected error occurred"
	}
}

func invalidTransitionMessage(err error) string {
	var te *transitionError
	if errors.As(err, &te) {
		return te.message
	}
	return "Operation not allowed in the current state"
}

// transitionError attaches an operation-specific message to a rejected
// transition.
type transitionError struct {
	message string
	err     error
}

func (e *transitionError) Error() string { return e.err.Error() }
func (e *transitionError) Unwrap() error { return e.err }

func withMessage(err error, message string) error {
	if err == nil || !errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, session.ErrUnknownRecord) {
		return err
	}
	return &transitionError{message: message, err: err}
}

// HandleAPIError writes the mapped status and safe message for err.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
