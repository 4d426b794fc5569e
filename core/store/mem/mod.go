// Package mem implements an in-memory key/value snapshot.
//
// A snapshot keeps its own updates and falls back to its parent for keys it
// does not know, so that a staged child can be discarded without touching the
// parent. It is the storage used by the tests and by the volatile flavour of
// the chain.
package mem

import "github.com/parleychat/parley/core/store"

// Snapshot is an in-memory implementation of a store snapshot. It saves the
// updates in an internal map and only keeps the updates of the current
// snapshot. When reading, it looks up the parent if the key is not found.
//
// - implements store.Snapshot
type Snapshot struct {
	parent  *Snapshot
	store   map[string][]byte
	deleted map[string]struct{}
}

// NewSnapshot creates a new empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		store:   make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

// Get implements store.Readable. It returns the value of the key, or nil if it
// is not set.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	str := string(key)

	if _, ok := s.deleted[str]; ok {
		return nil, nil
	}

	val, ok := s.store[str]
	if ok {
		return val, nil
	}

	if s.parent == nil {
		return nil, nil
	}

	return s.parent.Get(key)
}

// Set implements store.Writable.
func (s *Snapshot) Set(key, value []byte) error {
	str := string(key)

	delete(s.deleted, str)
	s.store[str] = value

	return nil
}

// Delete implements store.Writable.
func (s *Snapshot) Delete(key []byte) error {
	str := string(key)

	delete(s.store, str)
	s.deleted[str] = struct{}{}

	return nil
}

// Stage runs the callback over a child snapshot and returns it. The updates of
// the child are left out of the current snapshot until merged.
func (s *Snapshot) Stage(fn func(store.Snapshot) error) (*Snapshot, error) {
	child := s.makeChild()

	err := fn(child)
	if err != nil {
		return nil, err
	}

	return child, nil
}

// Merge applies the updates of the child snapshot to the current one.
func (s *Snapshot) Merge(child *Snapshot) {
	for key, value := range child.store {
		delete(s.deleted, key)
		s.store[key] = value
	}

	for key := range child.deleted {
		delete(s.store, key)
		s.deleted[key] = struct{}{}
	}
}

func (s *Snapshot) makeChild() *Snapshot {
	return &Snapshot{
		parent:  s,
		store:   make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}
