// Package access defines the primitives to identify the caller of an
// operation.
//
// The ledger trusts the identity attached to a transaction entirely: the
// authentication itself is the responsibility of the identity provider that
// signed the transaction.
package access

import "encoding"

// Identity is an abstraction to uniquely identify the origin of a
// transaction. Its textual form is used as the account key in the ledger
// state.
type Identity interface {
	encoding.TextMarshaler

	// Equal returns true when the other object is the same identity.
	Equal(other interface{}) bool
}
