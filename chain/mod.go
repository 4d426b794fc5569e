// Package chain defines the abstraction of the deterministic execution
// environment that hosts the ledger contract.
//
// The environment totally orders the submitted transactions and guarantees
// that one transaction executes to completion, fully applied or fully
// discarded, before the next one begins. Every execution observes a
// monotonically increasing block height.
package chain

import (
	"context"

	"github.com/parleychat/parley/core/execution"
	"github.com/parleychat/parley/core/store"
	"github.com/parleychat/parley/core/txn"
)

// Result is the outcome of an ordered transaction.
type Result struct {
	execution.Result

	// Height is the block height the transaction was executed at.
	Height uint64
}

// Ledger is the interface of the execution environment.
type Ledger interface {
	// AddTransaction orders and executes the transaction, returning once it
	// has been committed or discarded. The context is only honored before
	// the execution begins: once a transaction starts, it runs to
	// completion.
	AddTransaction(ctx context.Context, tx txn.Transaction) (Result, error)

	// Read runs the callback over the committed state along with the height
	// it was committed at.
	Read(fn func(r store.Readable, height uint64) error) error
}
