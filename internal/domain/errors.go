package domain

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Callers check these with errors.Is; concrete
// failures wrap them with fmt.Errorf("%w: ...") or one of the struct
// errors below.
var (
	// ErrInputValidation is returned when a required RequestContext field is
	// missing or malformed. It blocks submission and never reaches the
	// generative service.
	ErrInputValidation = errors.New("input validation failed")

	// ErrNetwork is returned when the generative service could not be reached.
	ErrNetwork = errors.New("network error")

	// ErrRateLimit is returned when the generative service throttled the request.
	ErrRateLimit = errors.New("rate limited by generative service")

	// ErrService is returned for non-2xx or malformed transport responses.
	ErrService = errors.New("generative service error")

	// ErrExtraction is returned when no structured envelope was found in
	// the raw response text.
	ErrExtraction = errors.New("extraction failed")

	// ErrSchema is returned when the extracted payload does not match the
	// QuestionRecord shape.
	ErrSchema = errors.New("schema error")

	// ErrInvalidTransition is returned when a session operation is not
	// allowed in the current state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrCancelled is returned when an in-flight submission was cancelled.
	ErrCancelled = errors.New("submission cancelled")

	// ErrSessionClosed is returned for operations on a torn-down session.
	ErrSessionClosed = errors.New("session closed")
)

// InputValidationError describes the first invalid RequestContext field.
type InputValidationError struct {
	Field  string
	Reason string
}

// NewInputValidationError creates an InputValidationError for field.
func NewInputValidationError(field, reason string) *InputValidationError {
	return &InputValidationError{Field: field, Reason: reason}
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInputValidation, e.Field, e.Reason)
}

func (e *InputValidationError) Unwrap() error {
	return ErrInputValidation
}

// SchemaError reports the first structural problem found in a payload.
// Detail is one of "malformed document", "not a sequence", "duplicate id"
// or "field <name> missing/invalid at index <i>".
type SchemaError struct {
	Detail string
}

// NewSchemaError creates a SchemaError with the given detail.
func NewSchemaError(detail string) *SchemaError {
	return &SchemaError{Detail: detail}
}

// NewFieldError creates the SchemaError for an invalid field of element index.
func NewFieldError(field string, index int) *SchemaError {
	return &SchemaError{Detail: fmt.Sprintf("field %s missing/invalid at index %d", field, index)}
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSchema, e.Detail)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// Kind returns the taxonomy name of err, e.g. "SchemaError". Unknown
// errors are reported as "InternalError".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInputValidation):
		return "InputValidationError"
	case errors.Is(err, ErrRateLimit):
		return "RateLimitError"
	case errors.Is(err, ErrNetwork):
		return "NetworkError"
	case errors.Is(err, ErrService):
		return "ServiceError"
	case errors.Is(err, ErrExtraction):
		return "ExtractionError"
	case errors.Is(err, ErrSchema):
		return "SchemaError"
	case errors.Is(err, ErrCancelled):
		return "CancelledError"
	default:
		return "InternalError"
	}
}

// Describe renders err as a single human-readable line prefixed with its
// kind. It is the text stored in a failed session state.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", Kind(err), err.Error())
}
