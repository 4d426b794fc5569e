// Package prefixed implements a snapshot wrapper that isolates the keys of a
// component under its own namespace, so that two contracts can never collide
// inside the shared state tree.
package prefixed

import (
	"encoding/binary"

	"github.com/parleychat/parley/core/store"
	"github.com/parleychat/parley/crypto"
)

type readable struct {
	store.Readable
	prefix []byte
}

type writable struct {
	store.Writable
	prefix []byte
}

type snapshot struct {
	*writable
	*readable
}

// NewSnapshot creates a new prefixed Snapshot.
func NewSnapshot(prefix string, snap store.Snapshot) store.Snapshot {
	p := []byte(prefix)

	return &snapshot{
		&writable{snap, p},
		&readable{snap, p},
	}
}

// NewReadable creates a new prefixed Readable.
func NewReadable(prefix string, r store.Readable) store.Readable {
	p := []byte(prefix)

	return &readable{r, p}
}

// Get implements store.Readable.
func (s *readable) Get(key []byte) ([]byte, error) {
	k := NewPrefixedKey(s.prefix, key)

	return s.Readable.Get(k)
}

// Set implements store.Writable.
func (s *writable) Set(key []byte, value []byte) error {
	k := NewPrefixedKey(s.prefix, key)

	return s.Writable.Set(k, value)
}

// Delete implements store.Writable.
func (s *writable) Delete(key []byte) error {
	k := NewPrefixedKey(s.prefix, key)

	return s.Writable.Delete(k)
}

// NewPrefixedKey creates a 256-bit hashed key from a prefix and a base key.
// Both parts are length-framed so that no two (prefix, key) pairs can produce
// the same digest.
func NewPrefixedKey(prefix, key []byte) []byte {
	h := crypto.NewSha256Factory().New()

	length := []byte{0, 0}
	binary.LittleEndian.PutUint16(length, uint16(len(prefix)))

	h.Write(length)
	h.Write(prefix)

	length = []byte{0, 0}
	binary.LittleEndian.PutUint16(length, uint16(len(key)))

	h.Write(length)
	h.Write(key)

	return h.Sum(nil)
}
