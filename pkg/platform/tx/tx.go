// Package tx carries the active unit of work through context so every store
// taking part in it writes through the same transaction.
//
// Postgres stores look up the *sql.Tx with From. In-memory stores look up the
// Journal and register an undo step for each write, which the in-memory runner
// replays when the unit of work fails.
package tx

import (
	"context"
	"database/sql"
)

// Runner executes a function as one atomic unit of work.
//
// RunInTx serializes writers; View runs a read that must never observe a
// half-applied unit of work.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	View(ctx context.Context, fn func(ctx context.Context) error) error
}

type ctxKey struct{}
type journalKey struct{}

var (
	txKey        = ctxKey{}
	txJournalKey = journalKey{}
)

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Journal records undo steps for in-memory writes made inside a unit of work.
type Journal struct {
	undo []func()
}

// OnRollback registers fn to run if the unit of work fails.
func (j *Journal) OnRollback(fn func()) {
	if j == nil || fn == nil {
		return
	}
	j.undo = append(j.undo, fn)
}

// Rollback replays undo steps newest first and clears the journal.
func (j *Journal) Rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// WithJournal stores an undo journal in context.
func WithJournal(ctx context.Context, j *Journal) context.Context {
	return context.WithValue(ctx, txJournalKey, j)
}

// JournalFrom returns the undo journal of the active in-memory unit of work.
// A nil journal is safe to call OnRollback on.
func JournalFrom(ctx context.Context) *Journal {
	j, _ := ctx.Value(txJournalKey).(*Journal)
	return j
}
