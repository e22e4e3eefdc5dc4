package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-studygen/internal/domain"
	"github.com/sethvargo/go-retry"
)

// RetryPolicy configures retries of transient generative service failures.
// Only network and rate-limit failures are retried. MaxAttempts counts the
// first call, so a value of 1 or less disables retrying.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	JitterPercent int
}

// DefaultRetryPolicy matches the configuration defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		BaseDelay:     500 * time.Millisecond,
		MaxDelay:      8 * time.Second,
		JitterPercent: 20,
	}
}

// Validate reports whether the policy can build a backoff schedule.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts <= 1 {
		return nil
	}
	if p.BaseDelay <= 0 {
		return fmt.Errorf("%w: retry base delay must be positive", ErrInvalidConfig)
	}
	if p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("%w: retry max delay %s is below base delay %s", ErrInvalidConfig, p.MaxDelay, p.BaseDelay)
	}
	if p.JitterPercent < 0 || p.JitterPercent > 100 {
		return fmt.Errorf("%w: retry jitter must be between 0 and 100 percent", ErrInvalidConfig)
	}
	return nil
}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.BaseDelay)
	b = retry.WithCappedDuration(p.MaxDelay, b)
	if p.JitterPercent > 0 {
		b = retry.WithJitterPercent(uint64(p.JitterPercent), b)
	}
	return retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
}

// IsRetryable reports whether err is a transient failure worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrNetwork) || errors.Is(err, domain.ErrRateLimit)
}

// RetryingClient wraps a Client with a RetryPolicy.
type RetryingClient struct {
	inner  Client
	policy RetryPolicy
	logger *slog.Logger
}

// NewRetryingClient decorates inner with policy.
func NewRetryingClient(inner Client, policy RetryPolicy, logger *slog.Logger) (*RetryingClient, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: client cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &RetryingClient{
		inner:  inner,
		policy: policy,
		logger: logger.With("component", "retrying_client"),
	}, nil
}

// Submit calls the wrapped client, retrying network and rate-limit
// failures with capped, jittered exponential backoff. Service errors and
// context errors are returned immediately.
func (c *RetryingClient) Submit(ctx context.Context, prompt string) (string, error) {
	if c.policy.MaxAttempts <= 1 {
		return c.inner.Submit(ctx, prompt)
	}

	var (
		response string
		attempt  int
	)
	err := retry.Do(ctx, c.policy.backoff(), func(ctx context.Context) error {
		attempt++
		out, err := c.inner.Submit(ctx, prompt)
		if err == nil {
			response = out
			return nil
		}
		if ctx.Err() != nil || !IsRetryable(err) {
			return err
		}
		if attempt < c.policy.MaxAttempts {
			c.logger.WarnContext(ctx, "transient generative service failure, retrying",
				"attempt", attempt,
				"max_attempts", c.policy.MaxAttempts,
				"error", err)
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		if attempt > 1 {
			c.logger.ErrorContext(ctx, "generative service call failed after retries",
				"attempts", attempt,
				"error", err)
		}
		return "", err
	}
	return response, nil
}
