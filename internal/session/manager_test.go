package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-studygen/internal/domain"
	"github.com/phrazzld/scry-studygen/internal/mocks"
	"github.com/phrazzld/scry-studygen/internal/platform/logger"
	"github.com/phrazzld/scry-studygen/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newManager(t *testing.T, client *mocks.MockClient, opts ...session.ManagerOption) *session.Manager {
	t.Helper()
	l, _ := logger.GetTestLogger(t)
	m, err := session.NewManager(newRunner(t, client), nil, 10*time.Minute, l, opts...)
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)
	return m
}

func TestNewManagerValidation(t *testing.T) {
	l, _ := logger.GetTestLogger(t)
	runner := newRunner(t, mocks.NewMockClientWithResponse(oneRecord))

	_, err := session.NewManager(nil, nil, time.Minute, l)
	assert.Error(t, err)
	_, err = session.NewManager(runner, nil, time.Minute, nil)
	assert.EqualError(t, err, "logger cannot be nil")
	_, err = session.NewManager(runner, nil, 0, l)
	assert.Error(t, err)
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	m := newManager(t, mocks.NewMockClientWithResponse(twoRecords))

	a, err := m.Create()
	require.NoError(t, err)
	b, err := m.Create()
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, m.Len())

	submitAndWait(t, a)
	_, err = a.Select(1)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusReady, a.State().Status)
	assert.Equal(t, domain.StatusIdle, b.State().Status)

	got, err := m.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestManagerGetAndDelete(t *testing.T) {
	m := newManager(t, mocks.NewMockClientWithResponse(oneRecord))

	_, err := m.Get(uuid.New())
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	s, err := m.Create()
	require.NoError(t, err)
	require.NoError(t, m.Delete(s.ID()))

	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(s.ID()), session.ErrSessionNotFound)
	_, err = s.Submit(validContext)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
}

func TestManagerReap(t *testing.T) {
	clock := newFakeClock()
	m := newManager(t, mocks.NewMockClientWithResponse(oneRecord), session.WithManagerClock(clock.Now))

	stale, err := m.Create()
	require.NoError(t, err)
	clock.Advance(6 * time.Minute)
	active, err := m.Create()
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	active.Touch()

	assert.Equal(t, 1, m.Reap())
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(stale.ID())
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	select {
	case <-stale.Done():
	default:
		t.Fatal("reaped session was not closed")
	}

	_, err = m.Get(active.ID())
	assert.NoError(t, err)
	assert.Equal(t, 0, m.Reap())
}

func TestManagerShutdownCancelsInFlight(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	m := newManager(t, mocks.NewBlockingMockClient(release, oneRecord))

	s, err := m.Create()
	require.NoError(t, err)
	ticket, err := s.Submit(validContext)
	require.NoError(t, err)

	m.Shutdown()

	_, err = wait(t, ticket)
	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.Equal(t, 0, m.Len())
}

func TestManagerRunStopsOnContextCancel(t *testing.T) {
	m := newManager(t, mocks.NewMockClientWithResponse(oneRecord))
	s, err := m.Create()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("Run did not return")
	}
	select {
	case <-s.Done():
	default:
		t.Fatal("session not closed on shutdown")
	}
}
