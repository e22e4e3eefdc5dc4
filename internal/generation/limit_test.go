package generation_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/scry-studygen/internal/generation"
	"github.com/phrazzld/scry-studygen/internal/mocks"
	"github.com/phrazzld/scry-studygen/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitedClientBoundsConcurrency(t *testing.T) {
	t.Parallel()
	l, _ := logger.GetTestLogger(t)

	var inFlight, peak int32
	release := make(chan struct{})
	inner := &mocks.MockClient{SubmitFn: func(context.Context, string) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&inFlight, -1)
		return "ok", nil
	}}

	client, err := generation.NewLimitedClient(inner, 2, l)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := client.Submit(context.Background(), "prompt")
			assert.NoError(t, err)
			assert.Equal(t, "ok", out)
		}()
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&inFlight) == 2 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&peak))
	assert.Equal(t, 5, inner.CallCount())
}

func TestLimitedClientHonoursContext(t *testing.T) {
	t.Parallel()
	l, _ := logger.GetTestLogger(t)

	release := make(chan struct{})
	defer close(release)
	inner := mocks.NewBlockingMockClient(release, "ok")
	client, err := generation.NewLimitedClient(inner, 1, l)
	require.NoError(t, err)

	go func() { _, _ = client.Submit(context.Background(), "first") }()
	require.Eventually(t, func() bool { return inner.CallCount() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Submit(ctx, "second")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, inner.CallCount(), "waiting caller never reached the inner client")
}

func TestNewLimitedClientValidation(t *testing.T) {
	t.Parallel()
	l, _ := logger.GetTestLogger(t)

	_, err := generation.NewLimitedClient(nil, 1, l)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	_, err = generation.NewLimitedClient(mocks.NewMockClientWithResponse("ok"), 0, l)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	_, err = generation.NewLimitedClient(mocks.NewMockClientWithResponse("ok"), 1, nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}
