// Package fake provides fake implementations for interfaces commonly used in
// the repository. The fakes are only expected to be used in tests.
package fake

import (
	"golang.org/x/xerrors"

	"github.com/parleychat/parley/crypto"
)

var fakeErr = xerrors.New("fake error")

// GetError returns the fake error.
func GetError() error {
	return fakeErr
}

// Err returns the expected format of a wrapped fake error.
func Err(msg string) string {
	return msg + ": " + fakeErr.Error()
}

// PublicKey is a fake implementation of a public key.
//
// - implements crypto.PublicKey
// - implements access.Identity
type PublicKey struct {
	Name string

	err       error
	verifyErr error
}

// NewBadPublicKey returns a public key that fails to marshal.
func NewBadPublicKey() PublicKey {
	return PublicKey{err: fakeErr}
}

// NewBadVerifierPublicKey returns a public key that marshals fine but refuses
// every signature.
func NewBadVerifierPublicKey() PublicKey {
	return PublicKey{verifyErr: fakeErr}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return []byte("fake.PublicKey" + pk.Name), pk.err
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte("fake.PublicKey" + pk.Name), pk.err
}

// Verify implements crypto.PublicKey.
func (pk PublicKey) Verify([]byte, crypto.Signature) error {
	if pk.verifyErr != nil {
		return pk.verifyErr
	}

	return pk.err
}

// Equal implements crypto.PublicKey.
func (pk PublicKey) Equal(other interface{}) bool {
	pubkey, ok := other.(PublicKey)

	return ok && pubkey.Name == pk.Name
}

// String implements fmt.Stringer.
func (pk PublicKey) String() string {
	return "fake.PublicKey" + pk.Name
}

// Signature is a fake implementation of a signature.
//
// - implements crypto.Signature
type Signature struct{}

// MarshalBinary implements encoding.BinaryMarshaler.
func (Signature) MarshalBinary() ([]byte, error) {
	return []byte("fake.Signature"), nil
}

// Equal implements crypto.Signature.
func (Signature) Equal(other crypto.Signature) bool {
	_, ok := other.(Signature)

	return ok
}

// Signer is a fake implementation of a signer.
//
// - implements crypto.Signer
type Signer struct {
	pubkey PublicKey

	err error
}

// NewSigner returns a signer with the default fake public key.
func NewSigner() Signer {
	return Signer{}
}

// NewBadSigner returns a signer that fails to sign.
func NewBadSigner() Signer {
	return Signer{err: fakeErr}
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return s.pubkey
}

// Sign implements crypto.Signer.
func (s Signer) Sign([]byte) (crypto.Signature, error) {
	return Signature{}, s.err
}
