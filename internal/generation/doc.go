// Package generation defines the boundary between the study-question
// pipeline and an external generative text service such as Gemini.
//
// Client is the opaque submit(prompt) -> text contract. Implementations
// report failures by wrapping domain.ErrNetwork, domain.ErrRateLimit or
// domain.ErrService, and return the context error when the call was
// cancelled. RetryingClient decorates any Client with an explicit
// RetryPolicy for the transient kinds.
package generation
