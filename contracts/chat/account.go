package chat

import (
	"encoding/binary"

	"github.com/parleychat/parley/core/access"
	"github.com/parleychat/parley/core/store"
	"golang.org/x/xerrors"
)

const (
	// neverClaimed is the sentinel of an account that has never claimed. An
	// account claiming at height 1 stores the same value, so the two states
	// are indistinguishable.
	neverClaimed = int64(0)

	accountPrefix = "acct:"

	reserveKey = "reserve"
)

// accountRecord is the per-account state of the ledger. An account springs
// into existence with the zero record on first reference and is never
// deleted.
type accountRecord struct {
	// Balance is the amount of tokens held, mutated only through the ledger
	// debit and credit primitives.
	Balance uint64

	// LastClaimed is the height recorded by the last successful claim,
	// stored as height-1, so the value can be -1.
	LastClaimed int64

	// History contains one entry per successful send, the recorded value
	// being height-1.
	History []int64
}

// ledger owns the balance mappings. The claim and message commands only move
// value through its debit and credit primitives, so the fixed-supply
// invariant, sum of balances plus reserve, is locally checkable.
type ledger struct {
	snap store.Snapshot
}

func newLedger(snap store.Snapshot) ledger {
	return ledger{snap: snap}
}

// accountKey derives the state key of an identity.
func accountKey(ident access.Identity) ([]byte, error) {
	text, err := ident.MarshalText()
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal identity: %v", err)
	}

	return append([]byte(accountPrefix), text...), nil
}

// account loads the record of the identity, returning the zero record when
// the account was never touched.
func (l ledger) account(ident access.Identity) (accountRecord, []byte, error) {
	key, err := accountKey(ident)
	if err != nil {
		return accountRecord{}, nil, err
	}

	rec, err := l.read(key)
	if err != nil {
		return accountRecord{}, nil, err
	}

	return rec, key, nil
}

func (l ledger) read(key []byte) (accountRecord, error) {
	data, err := l.snap.Get(key)
	if err != nil {
		return accountRecord{}, xerrors.Errorf("failed to get account: %v", err)
	}

	if len(data) == 0 {
		return accountRecord{}, nil
	}

	rec, err := decodeAccount(data)
	if err != nil {
		return accountRecord{}, xerrors.Errorf("malformed account record: %v", err)
	}

	return rec, nil
}

func (l ledger) save(key []byte, rec accountRecord) error {
	err := l.snap.Set(key, encodeAccount(rec))
	if err != nil {
		return xerrors.Errorf("failed to set account: %v", err)
	}

	return nil
}

// reserve returns the balance of the contract's own account, the source of
// the claim grants and the sink of the message fees.
func (l ledger) reserve() (uint64, error) {
	data, err := l.snap.Get([]byte(reserveKey))
	if err != nil {
		return 0, xerrors.Errorf("failed to get reserve: %v", err)
	}

	if len(data) == 0 {
		return 0, nil
	}

	return binary.LittleEndian.Uint64(data), nil
}

func (l ledger) setReserve(value uint64) error {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, value)

	err := l.snap.Set([]byte(reserveKey), buffer)
	if err != nil {
		return xerrors.Errorf("failed to set reserve: %v", err)
	}

	return nil
}

// fromReserve moves tokens from the reserve to the account record. The
// record is only mutated when the reserve can cover the amount.
func (l ledger) fromReserve(rec *accountRecord, amount uint64) error {
	reserve, err := l.reserve()
	if err != nil {
		return err
	}

	if reserve < amount {
		return xerrors.Errorf("%w: %d < %d", ErrInsufficientReserve, reserve, amount)
	}

	err = l.setReserve(reserve - amount)
	if err != nil {
		return err
	}

	rec.Balance += amount

	return nil
}

// toReserve moves tokens from the account record to the reserve.
func (l ledger) toReserve(rec *accountRecord, amount uint64) error {
	if rec.Balance < amount {
		return xerrors.Errorf("%w: %d < %d", ErrInsufficientFunds, rec.Balance, amount)
	}

	reserve, err := l.reserve()
	if err != nil {
		return err
	}

	err = l.setReserve(reserve + amount)
	if err != nil {
		return err
	}

	rec.Balance -= amount

	return nil
}

// encodeAccount packs the record with fixed-width little-endian fields: the
// balance, the last claimed height, the history length and the history
// entries.
func encodeAccount(rec accountRecord) []byte {
	buffer := make([]byte, 8+8+4+8*len(rec.History))

	binary.LittleEndian.PutUint64(buffer, rec.Balance)
	binary.LittleEndian.PutUint64(buffer[8:], uint64(rec.LastClaimed))
	binary.LittleEndian.PutUint32(buffer[16:], uint32(len(rec.History)))

	for i, height := range rec.History {
		binary.LittleEndian.PutUint64(buffer[20+8*i:], uint64(height))
	}

	return buffer
}

func decodeAccount(data []byte) (accountRecord, error) {
	if len(data) < 20 {
		return accountRecord{}, xerrors.Errorf("record too short: %d bytes", len(data))
	}

	rec := accountRecord{
		Balance:     binary.LittleEndian.Uint64(data),
		LastClaimed: int64(binary.LittleEndian.Uint64(data[8:])),
	}

	num := int(binary.LittleEndian.Uint32(data[16:]))
	if len(data) < 20+8*num {
		return accountRecord{}, xerrors.Errorf("truncated history: %d entries announced", num)
	}

	if num > 0 {
		rec.History = make([]int64, num)
		for i := range rec.History {
			rec.History[i] = int64(binary.LittleEndian.Uint64(data[20+8*i:]))
		}
	}

	return rec, nil
}
