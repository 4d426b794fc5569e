// Package execution defines the primitives to execute a transaction against
// the ledger state.
//
// The step carries the complete invoking context: the transaction with the
// caller identity and the block height resolved by the ordering layer. A
// contract must never read ambient globals, so that an execution is a pure
// function of (state, step).
package execution

import (
	"github.com/parleychat/parley/core/store"
	"github.com/parleychat/parley/core/txn"
)

// Step is the execution context of a transaction.
type Step struct {
	// Height is the block height resolved by the environment for this
	// execution.
	Height uint64

	// Current is the transaction being executed.
	Current txn.Transaction
}

// Result is the result of a transaction execution.
type Result struct {
	// Accepted is the success state of the transaction.
	Accepted bool

	// Message gives a chance to the execution to explain why a transaction
	// has failed.
	Message string
}

// Service is the execution service that defines the primitives to execute a
// transaction.
type Service interface {
	// Execute must apply the transaction to the snapshot and return the
	// result of it.
	Execute(snap store.Snapshot, step Step) (Result, error)
}
