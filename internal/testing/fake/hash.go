package fake

import (
	"hash"

	"github.com/parleychat/parley/crypto"
)

// Hash is a fake implementation of a hash that can be set up to fail after a
// number of writes.
//
// - implements hash.Hash
type Hash struct {
	hash.Hash

	delay int
	err   error
}

// NewBadHash returns a hash that fails on the first write.
func NewBadHash() *Hash {
	return &Hash{err: fakeErr}
}

// NewBadHashWithDelay returns a hash that fails after delay writes.
func NewBadHashWithDelay(delay int) *Hash {
	return &Hash{err: fakeErr, delay: delay}
}

// Write implements io.Writer.
func (h *Hash) Write(in []byte) (int, error) {
	if h.delay > 0 {
		h.delay--
		return len(in), nil
	}

	return 0, h.err
}

// Size implements hash.Hash.
func (h *Hash) Size() int {
	return 32
}

// Sum implements hash.Hash.
func (h *Hash) Sum(in []byte) []byte {
	return in
}

// HashFactory is a fake implementation of a hash factory.
//
// - implements crypto.HashFactory
type HashFactory struct {
	hash *Hash
}

// NewHashFactory returns a factory that always produces the given hash.
func NewHashFactory(h *Hash) HashFactory {
	return HashFactory{hash: h}
}

// New implements crypto.HashFactory.
func (f HashFactory) New() hash.Hash {
	return f.hash
}

var _ crypto.HashFactory = HashFactory{}
