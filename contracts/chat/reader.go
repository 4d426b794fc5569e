package chat

import (
	"github.com/parleychat/parley/core/access"
	"github.com/parleychat/parley/core/store"
	"github.com/parleychat/parley/core/store/prefixed"
	"golang.org/x/xerrors"
)

// Reader exposes the read-only surface of the contract over a state snapshot
// taken at a given height. None of the accessors mutate the state and all of
// them succeed on valid input, even for accounts that were never touched.
type Reader struct {
	reader store.Readable
	height uint64
}

// NewReader creates a reader over the given state, using the height the state
// was committed at for the cooldown arithmetic.
func NewReader(r store.Readable, height uint64) Reader {
	return Reader{
		reader: prefixed.NewReadable(ContractUID, r),
		height: height,
	}
}

func (r Reader) account(ident access.Identity) (accountRecord, error) {
	key, err := accountKey(ident)
	if err != nil {
		return accountRecord{}, err
	}

	return newLedger(readOnly{r.reader}).read(key)
}

// BalanceOf returns the token balance of the account.
func (r Reader) BalanceOf(ident access.Identity) (uint64, error) {
	rec, err := r.account(ident)
	if err != nil {
		return 0, err
	}

	return rec.Balance, nil
}

// BlocksTillClaimable returns the number of blocks before the account can
// claim again, or zero when it can claim right away.
func (r Reader) BlocksTillClaimable(ident access.Identity) (uint64, error) {
	rec, err := r.account(ident)
	if err != nil {
		return 0, err
	}

	cooldown, err := getParam(r.reader, cooldownKey)
	if err != nil {
		return 0, err
	}

	return blocksTillClaimable(cooldown, int64(r.height), rec.LastClaimed), nil
}

// ClaimableTokens returns the amount a claim would pay out at the reader's
// height.
func (r Reader) ClaimableTokens(ident access.Identity) (uint64, error) {
	rec, err := r.account(ident)
	if err != nil {
		return 0, err
	}

	daily, err := getParam(r.reader, dailyKey)
	if err != nil {
		return 0, err
	}

	cooldown, err := getParam(r.reader, cooldownKey)
	if err != nil {
		return 0, err
	}

	return claimableTokens(daily, cooldown, int64(r.height), rec.LastClaimed), nil
}

// MessageHistory returns the heights recorded for every message the account
// sent, in send order. The recorded value is height-1, the same convention
// as the claim bookkeeping.
func (r Reader) MessageHistory(ident access.Identity) ([]int64, error) {
	rec, err := r.account(ident)
	if err != nil {
		return nil, err
	}

	return rec.History, nil
}

// BlocksPerClaim returns the current cooldown length in blocks.
func (r Reader) BlocksPerClaim() (uint64, error) {
	return getParam(r.reader, cooldownKey)
}

// TokensPerMessage returns the fee charged per message.
func (r Reader) TokensPerMessage() (uint64, error) {
	return getParam(r.reader, perMsgKey)
}

// DailyTokens returns the size of one claim grant.
func (r Reader) DailyTokens() (uint64, error) {
	return getParam(r.reader, dailyKey)
}

// TotalSupply returns the fixed token supply.
func (r Reader) TotalSupply() (uint64, error) {
	return getParam(r.reader, supplyKey)
}

// Reserve returns the balance of the contract's own account.
func (r Reader) Reserve() (uint64, error) {
	return newLedger(readOnly{r.reader}).reserve()
}

// LatestMessage returns the content pointer of the most recent message, or
// the empty string when no message was ever sent.
func (r Reader) LatestMessage() (string, error) {
	data, err := r.reader.Get([]byte(latestKey))
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// RoomPointer returns the room content pointer.
func (r Reader) RoomPointer() (string, error) {
	data, err := r.reader.Get([]byte(roomKey))
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// readOnly adapts a readable store to the snapshot interface so that the
// ledger primitives can serve the accessors. Writes are rejected.
//
// - implements store.Snapshot
type readOnly struct {
	store.Readable
}

func (readOnly) Set(key, value []byte) error {
	return errReadOnly
}

func (readOnly) Delete(key []byte) error {
	return errReadOnly
}

var errReadOnly = xerrors.New("read-only state")
