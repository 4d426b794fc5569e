// Package crypto defines the cryptographic primitives needed by the ledger:
// hash factories, public keys, signatures and signers.
//
// A public key doubles as the account identifier of the chat ledger, which is
// why it implements encoding.TextMarshaler to produce a stable textual form.
package crypto

import (
	"encoding"
	"hash"
)

// HashFactory is an interface to produce a hash digest.
type HashFactory interface {
	New() hash.Hash
}

// PublicKey is a public identity that can be used to verify a signature.
type PublicKey interface {
	encoding.BinaryMarshaler
	encoding.TextMarshaler

	// Verify returns nil if the signature matches the message for this public
	// key.
	Verify(msg []byte, signature Signature) error

	// Equal returns true when the other objects is this public key.
	Equal(other interface{}) bool
}

// Signature is a verifiable element for a unique message.
type Signature interface {
	encoding.BinaryMarshaler

	// Equal returns true when both signatures are the same.
	Equal(other Signature) bool
}

// Signer provides the primitives to sign and verify signatures.
type Signer interface {
	// GetPublicKey returns the public key of the signer.
	GetPublicKey() PublicKey

	// Sign returns a signature over the message.
	Sign(msg []byte) (Signature, error)
}
