// Package txn defines the abstraction of transactions.
//
// A transaction is a smart contract input. It is uniquely identifiable via a
// digest and it can be ordered with the nonce that acts as a sequence number.
// The transaction is also created by an identity that is used for access
// control.
//
// The manager helps to create transactions as the nonce needs to be correct
// for the transaction to be valid.
package txn

import (
	"io"

	"github.com/parleychat/parley/core/access"
)

// Transaction is what triggers a smart contract execution by passing it as
// part of the input.
type Transaction interface {
	// GetID returns the unique identifier for the transaction.
	GetID() []byte

	// GetNonce returns the nonce of the transaction which corresponds to the
	// sequence number of a unique identity.
	GetNonce() uint64

	// GetIdentity returns the identity that created the transaction.
	GetIdentity() access.Identity

	// GetArg is a getter for the arguments of the transaction.
	GetArg(key string) []byte

	// Fingerprint writes a deterministic binary representation of the
	// transaction into the writer.
	Fingerprint(w io.Writer) error
}

// Arg is a generic argument that can be stored in a transaction.
type Arg struct {
	Key   string
	Value []byte
}

// Manager is a manager to create transactions. It can help creating
// transactions when some information is required, like the current nonce.
type Manager interface {
	// Make creates a transaction with the given arguments, signed by the
	// identity of the manager.
	Make(args ...Arg) (Transaction, error)
}
