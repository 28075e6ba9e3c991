// Package repokit provides common types and helpers for repository implementations
package repokit

import (
	"context"

	"github.com/alexmarder/hloc/internal/platform/store"
)

// Queryer is the minimal read and write surface for SQL repos
type Queryer = store.RowQuerier

// TxRunner can execute a function inside a transaction or hand out an explicit one
type TxRunner = store.TxRunner

type (
	// Tx is an explicit transaction whose commit cadence the caller owns
	Tx = store.Tx

	// Rows are the result set of a query
	Rows = store.Rows

	// Row is a single row result from a query
	Row = store.Row

	// CommandTag is the result of a command that modifies data
	CommandTag = store.CommandTag
)

// WithTx runs fn inside a transaction and binds the repo to the tx handle
func WithTx[T any](ctx context.Context, tx TxRunner, b Binder[T], fn func(repo T) error) error {
	return tx.Tx(ctx, func(q Queryer) error { return fn(b.Bind(q)) })
}
