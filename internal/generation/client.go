package generation

import "context"

// Client submits a prompt to a generative text service and returns its
// raw text response. Calls may block for an unbounded time and must honor
// ctx cancellation.
type Client interface {
	Submit(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, prompt string) (string, error)

// Submit calls f(ctx, prompt).
func (f ClientFunc) Submit(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
