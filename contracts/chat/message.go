package chat

import (
	"fmt"

	"github.com/parleychat/parley"
	"github.com/parleychat/parley/core/execution"
	"github.com/parleychat/parley/core/store"
	"golang.org/x/xerrors"
)

// State keys of the two content pointers. Only the pointers live on-ledger,
// the message bodies stay in the content-addressed storage peer, so the
// footprint is constant per message regardless of its size.
const (
	latestKey = "msg:latest"
	roomKey   = "msg:room"
)

// send implements commands. It charges the fixed fee to the caller, records
// the send in the caller's history and overwrites the latest message pointer
// with the provided one. Charging per call throttles spam independently of
// the message length.
func (c chatCommand) send(snap store.Snapshot, step execution.Step) error {
	pointer := step.Current.GetArg(MessageArg)
	if len(pointer) == 0 {
		return xerrors.Errorf("'%s' not found in tx arg", MessageArg)
	}

	ld := newLedger(snap)

	rec, key, err := ld.account(step.Current.GetIdentity())
	if err != nil {
		return err
	}

	fee, err := getParam(snap, perMsgKey)
	if err != nil {
		return err
	}

	if rec.Balance < fee {
		return xerrors.Errorf("%w: %d < %d", ErrInsufficientFunds, rec.Balance, fee)
	}

	rec.History = append(rec.History, int64(step.Height)-1)

	err = ld.toReserve(&rec, fee)
	if err != nil {
		return err
	}

	err = ld.save(key, rec)
	if err != nil {
		return err
	}

	err = snap.Set([]byte(latestKey), pointer)
	if err != nil {
		return xerrors.Errorf("failed to set message pointer: %v", err)
	}

	parley.Logger.Info().
		Str("contract", ContractName).
		Msgf("message %s sent for %d token(s)", pointer, fee)

	return nil
}

// setRoom implements commands. It overwrites the room content pointer. The
// command is deliberately left unrestricted and un-metered, even though send
// is both fee-gated and caller-scoped.
func (c chatCommand) setRoom(snap store.Snapshot, step execution.Step) error {
	pointer := step.Current.GetArg(RoomArg)
	if len(pointer) == 0 {
		return xerrors.Errorf("'%s' not found in tx arg", RoomArg)
	}

	err := snap.Set([]byte(roomKey), pointer)
	if err != nil {
		return xerrors.Errorf("failed to set room pointer: %v", err)
	}

	fmt.Fprintf(c.printer, "room pointer set to %s", pointer)

	return nil
}
