// Package repokit holds the seams repositories bind against
package repokit

import (
	"context"
	"fmt"

	"payalias/internal/platform/store"
)

type (
	// Queryer is the read and write surface for SQL repos
	Queryer = store.RowQuerier
	// TxRunner runs a function in a transaction
	TxRunner = store.TxRunner
	// Row is a single row result
	Row = store.Row
	// Rows is a result set
	Rows = store.Rows
	// CommandTag reports the outcome of a write
	CommandTag = store.CommandTag
)

// Binder binds a repo to a Queryer, either the pool or an open transaction
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a constructor to Binder
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// MustBind binds q and panics on a nil Queryer
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: nil Queryer")
	}
	return b.Bind(q)
}

// WithTx binds a repo inside a transaction and runs fn with it
func WithTx[T any](ctx context.Context, tx TxRunner, b Binder[T], fn func(T) error) error {
	return tx.Tx(ctx, func(q Queryer) error { return fn(b.Bind(q)) })
}

// MustGuard panics when any backend in st fails its readiness check
func MustGuard(ctx context.Context, st interface{ Guard(context.Context) error }) {
	if err := st.Guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}
