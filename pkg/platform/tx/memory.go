package tx

import (
	"context"
	"sync"
	"time"

	dErrors "commission/pkg/domain-errors"
)

// defaultTxTimeout is the maximum duration for a unit of work.
const defaultTxTimeout = 5 * time.Second

// InMemory coordinates the in-memory stores. A single RWMutex spans all of
// them: writers hold it exclusively for the whole unit of work, readers share
// it, so a reader sees either the state before or after a unit of work.
type InMemory struct {
	mu      sync.RWMutex
	timeout time.Duration
}

// NewInMemory constructs an in-memory runner. A zero timeout uses the default.
func NewInMemory(timeout time.Duration) *InMemory {
	return &InMemory{timeout: timeout}
}

func (t *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	journal := &Journal{}
	if err := fn(WithJournal(ctx, journal)); err != nil {
		journal.Rollback()
		return err
	}
	return nil
}

func (t *InMemory) View(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read aborted: context cancelled")
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fn(ctx)
}

func (t *InMemory) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
