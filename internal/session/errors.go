package session

import "errors"

var (
	// ErrUnknownRecord is returned by Select for an id not in the current items.
	ErrUnknownRecord = errors.New("record not in current items")

	// ErrSessionNotFound is returned by the Manager for unknown or expired ids.
	ErrSessionNotFound = errors.New("session not found")
)
