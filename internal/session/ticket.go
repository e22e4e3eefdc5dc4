package session

import (
	"context"
	"sync"

	"github.com/phrazzld/scry-studygen/internal/domain"
)

// Ticket tracks one submission. It resolves when the pipeline call returns,
// whether or not its result was applied.
type Ticket struct {
	Seq uint64

	once  sync.Once
	done  chan struct{}
	state domain.SessionState
	err   error
}

func newTicket(seq uint64) *Ticket {
	return &Ticket{Seq: seq, done: make(chan struct{})}
}

func (t *Ticket) resolve(state domain.SessionState, err error) {
	t.once.Do(func() {
		t.state = state
		t.err = err
		close(t.done)
	})
}

// Done is closed once the submission has resolved.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the submission resolves or ctx is done. It returns the
// state the completion published, or an error wrapping domain.ErrCancelled
// when the completion was discarded because the submission had been
// cancelled or superseded.
func (t *Ticket) Wait(ctx context.Context) (domain.SessionState, error) {
	select {
	case <-t.done:
		return t.state, t.err
	case <-ctx.Done():
		return domain.SessionState{}, ctx.Err()
	}
}
