// Package session holds the per-user state machine around the question
// pipeline and the registry that owns sessions.
//
// A Session moves idle -> loading -> ready|failed and back to loading on
// every submission. Each submission runs in its own goroutine under a
// cancellable context and carries a sequence number; a completion is
// applied only when its number is still the session's current one, so a
// cancelled or superseded call can never overwrite newer state.
package session
