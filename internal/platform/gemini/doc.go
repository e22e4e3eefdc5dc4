// Package gemini implements generation.Client on top of Google's Gemini API
// using the google.golang.org/genai SDK.
//
// The adapter owns the transport concerns only: it sends the prompt as a
// single user turn, concatenates the text parts of the first candidate, and
// translates SDK and transport failures into the domain error taxonomy:
//
//   - HTTP 429 becomes domain.ErrRateLimit
//   - any other API error status becomes domain.ErrService
//   - connection failures and request timeouts become domain.ErrNetwork
//   - an empty or safety-blocked response becomes domain.ErrService
//
// Retries are not performed here; wrap the client with
// generation.NewRetryingClient.
package gemini
