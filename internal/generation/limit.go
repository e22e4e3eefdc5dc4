package generation

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"
)

// LimitedClient bounds how many Submit calls reach the inner client at
// once, across every session. Callers beyond the limit wait for a slot or
// for their context to end.
type LimitedClient struct {
	inner  Client
	sem    *semaphore.Weighted
	limit  int64
	logger *slog.Logger
}

// NewLimitedClient wraps inner so that at most maxConcurrent calls run at a time.
func NewLimitedClient(inner Client, maxConcurrent int, logger *slog.Logger) (*LimitedClient, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: inner client cannot be nil", ErrInvalidConfig)
	}
	if maxConcurrent <= 0 {
		return nil, fmt.Errorf("%w: max concurrent requests must be positive", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}
	return &LimitedClient{
		inner:  inner,
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		limit:  int64(maxConcurrent),
		logger: logger.With("component", "generation_limiter"),
	}, nil
}

// Submit waits for a free slot, then calls the inner client.
func (c *LimitedClient) Submit(ctx context.Context, prompt string) (string, error) {
	if !c.sem.TryAcquire(1) {
		c.logger.DebugContext(ctx, "waiting for a free generation slot", "limit", c.limit)
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return "", err
		}
	}
	defer c.sem.Release(1)
	return c.inner.Submit(ctx, prompt)
}
