package redis_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/phrazzld/scry-studygen/internal/platform/logger"
	"github.com/phrazzld/scry-studygen/internal/platform/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, model string) (*redis.CompletionCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb, err := redis.Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	l, _ := logger.GetTestLogger(t)
	cache, err := redis.NewCompletionCache(rdb, model, time.Hour, l)
	require.NoError(t, err)
	return cache, mr
}

func TestCompletionCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t, "gemini-test")

	_, ok, err := cache.Get(ctx, "prompt")
	require.NoError(t, err)
	assert.False(t, ok, "empty cache is a miss")

	require.NoError(t, cache.Set(ctx, "prompt", "```json\n[]\n```"))

	raw, ok, err := cache.Get(ctx, "prompt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "```json\n[]\n```", raw)

	ttl := mr.TTL(cache.Key("prompt"))
	assert.Equal(t, time.Hour, ttl)

	mr.FastForward(2 * time.Hour)
	_, ok, err = cache.Get(ctx, "prompt")
	require.NoError(t, err)
	assert.False(t, ok, "entry expires after ttl")
}

func TestCompletionCacheDelete(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t, "gemini-test")

	require.NoError(t, cache.Set(ctx, "prompt", "raw"))
	require.NoError(t, cache.Delete(ctx, "prompt"))

	_, ok, err := cache.Get(ctx, "prompt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompletionCacheKeys(t *testing.T) {
	a, _ := newCache(t, "model-a")
	b, _ := newCache(t, "model-b")

	key := a.Key("same prompt")
	assert.True(t, strings.HasPrefix(key, "studygen:completion:"))
	assert.Len(t, strings.TrimPrefix(key, "studygen:completion:"), 64)
	assert.Equal(t, key, a.Key("same prompt"))
	assert.NotEqual(t, key, a.Key("other prompt"))
	assert.NotEqual(t, key, b.Key("same prompt"), "model is part of the key")
}

func TestCompletionCacheServerDown(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t, "gemini-test")
	mr.Close()

	_, ok, err := cache.Get(ctx, "prompt")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, cache.Set(ctx, "prompt", "raw"))
}

func TestConnectErrors(t *testing.T) {
	_, err := redis.Connect(context.Background(), "not-a-url")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = redis.Connect(context.Background(), "redis://"+addr)
	assert.Error(t, err)
}

func TestNewCompletionCacheValidation(t *testing.T) {
	l, _ := logger.GetTestLogger(t)
	_, err := redis.NewCompletionCache(nil, "m", time.Hour, l)
	assert.Error(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: "localhost:0"})
	defer rdb.Close()
	_, err = redis.NewCompletionCache(rdb, "m", 0, l)
	assert.Error(t, err)
	_, err = redis.NewCompletionCache(rdb, "m", time.Hour, nil)
	assert.Error(t, err)
}
