// Package cas implements the content-addressed storage peer of the chat
// prototype.
//
// The ledger only stores pointers: the message bodies live here, keyed by the
// hex digest of their content. The ledger never validates that a pointer
// resolves, storage and retrieval are entirely this component's concern.
package cas

import (
	"encoding/hex"

	"github.com/parleychat/parley/core/store/kv"
	"github.com/parleychat/parley/crypto"
	"golang.org/x/xerrors"
)

var blobBucket = []byte("parley-blobs")

// Store is the interface of a content-addressed blob store.
type Store interface {
	// Store writes the blob and returns its content pointer.
	Store(blob []byte) (string, error)

	// Read returns the blob behind the pointer, or an error when it is
	// unknown.
	Read(pointer string) ([]byte, error)

	// Exists returns true when the pointer resolves.
	Exists(pointer string) (bool, error)
}

// BlobStore is a blob store over a key/value database.
//
// - implements cas.Store
type BlobStore struct {
	db      kv.DB
	factory crypto.HashFactory
}

// NewStore creates a blob store over the given database.
func NewStore(db kv.DB) (*BlobStore, error) {
	err := db.Update(blobBucket, func(kv.Bucket) error { return nil })
	if err != nil {
		return nil, xerrors.Errorf("failed to create bucket: %v", err)
	}

	bs := &BlobStore{
		db:      db,
		factory: crypto.NewSha256Factory(),
	}

	return bs, nil
}

// Store implements cas.Store. It keys the blob by the hex digest of its
// content, so storing the same content twice yields the same pointer.
func (bs *BlobStore) Store(blob []byte) (string, error) {
	key := bs.digest(blob)

	err := bs.db.Update(blobBucket, func(bucket kv.Bucket) error {
		return bucket.Set(key, blob)
	})
	if err != nil {
		return "", xerrors.Errorf("failed to store blob: %v", err)
	}

	return hex.EncodeToString(key), nil
}

// Read implements cas.Store. It returns the blob after verifying that its
// digest still matches the pointer.
func (bs *BlobStore) Read(pointer string) ([]byte, error) {
	key, err := hex.DecodeString(pointer)
	if err != nil {
		return nil, xerrors.Errorf("malformed pointer: %v", err)
	}

	var blob []byte

	err = bs.db.View(blobBucket, func(bucket kv.Bucket) error {
		value := bucket.Get(key)
		if value == nil {
			return xerrors.Errorf("unknown pointer '%s'", pointer)
		}

		blob = append([]byte{}, value...)

		return nil
	})
	if err != nil {
		return nil, err
	}

	if hex.EncodeToString(bs.digest(blob)) != pointer {
		return nil, xerrors.Errorf("digest mismatch for '%s'", pointer)
	}

	return blob, nil
}

// Exists implements cas.Store.
func (bs *BlobStore) Exists(pointer string) (bool, error) {
	key, err := hex.DecodeString(pointer)
	if err != nil {
		return false, xerrors.Errorf("malformed pointer: %v", err)
	}

	found := false

	err = bs.db.View(blobBucket, func(bucket kv.Bucket) error {
		found = bucket.Get(key) != nil

		return nil
	})
	if err != nil {
		return false, err
	}

	return found, nil
}

func (bs *BlobStore) digest(blob []byte) []byte {
	h := bs.factory.New()
	h.Write(blob)

	return h.Sum(nil)
}
