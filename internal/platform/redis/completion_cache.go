package redis

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const keyPrefix = "studygen:completion:"

// CompletionCache stores raw responses per (model, prompt).
type CompletionCache struct {
	rdb    *goredis.Client
	model  string
	ttl    time.Duration
	logger *slog.Logger
}

// NewCompletionCache creates a cache for responses produced by model.
func NewCompletionCache(rdb *goredis.Client, model string, ttl time.Duration, logger *slog.Logger) (*CompletionCache, error) {
	if rdb == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	return &CompletionCache{
		rdb:    rdb,
		model:  model,
		ttl:    ttl,
		logger: logger.With("component", "completion_cache"),
	}, nil
}

// Key returns the Redis key for prompt.
func (c *CompletionCache) Key(prompt string) string {
	sum := blake2b.Sum256([]byte(c.model + "\x00" + prompt))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached response for prompt. A miss is reported as
// ok == false with a nil error.
func (c *CompletionCache) Get(ctx context.Context, prompt string) (string, bool, error) {
	raw, err := c.rdb.Get(ctx, c.Key(prompt)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("completion cache get: %w", err)
	}
	return raw, true, nil
}

// Set stores raw as the response for prompt.
func (c *CompletionCache) Set(ctx context.Context, prompt, raw string) error {
	if err := c.rdb.Set(ctx, c.Key(prompt), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("completion cache set: %w", err)
	}
	c.logger.DebugContext(ctx, "cached completion", "response_length", len(raw))
	return nil
}

// Delete removes the entry for prompt.
func (c *CompletionCache) Delete(ctx context.Context, prompt string) error {
	if err := c.rdb.Del(ctx, c.Key(prompt)).Err(); err != nil {
		return fmt.Errorf("completion cache delete: %w", err)
	}
	return nil
}
