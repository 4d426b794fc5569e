package chat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/parleychat/parley/core/execution"
	"github.com/parleychat/parley/core/store"
	"golang.org/x/xerrors"
)

// State keys of the tunable parameters and of the owner identity.
const (
	ownerKey    = "cfg:owner"
	supplyKey   = "cfg:supply"
	dailyKey    = "cfg:daily"
	perMsgKey   = "cfg:permsg"
	cooldownKey = "cfg:cooldown"
)

// setCooldown implements commands. It replaces the claim cooldown when the
// caller is the owner. The new value is stored unconditionally, with no
// bounds check: a cooldown of zero makes every account immediately and
// repeatedly claimable.
func (c chatCommand) setCooldown(snap store.Snapshot, step execution.Step) error {
	owner, err := snap.Get([]byte(ownerKey))
	if err != nil {
		return xerrors.Errorf("failed to get owner: %v", err)
	}

	caller, err := step.Current.GetIdentity().MarshalText()
	if err != nil {
		return xerrors.Errorf("couldn't marshal identity: %v", err)
	}

	if !bytes.Equal(owner, caller) {
		return xerrors.Errorf("%w: only the owner can change the cooldown", ErrUnauthorized)
	}

	arg := step.Current.GetArg(CooldownArg)
	if len(arg) == 0 {
		return xerrors.Errorf("'%s' not found in tx arg", CooldownArg)
	}

	value, err := strconv.ParseUint(string(arg), 10, 64)
	if err != nil {
		return xerrors.Errorf("invalid cooldown '%s': %v", arg, err)
	}

	err = setParam(snap, cooldownKey, value)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.printer, "cooldown set to %d", value)

	return nil
}

func getParam(snap store.Readable, key string) (uint64, error) {
	data, err := snap.Get([]byte(key))
	if err != nil {
		return 0, xerrors.Errorf("failed to get '%s': %v", key, err)
	}

	if len(data) == 0 {
		return 0, nil
	}

	return binary.LittleEndian.Uint64(data), nil
}

func setParam(snap store.Snapshot, key string, value uint64) error {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, value)

	err := snap.Set([]byte(key), buffer)
	if err != nil {
		return xerrors.Errorf("failed to set '%s': %v", key, err)
	}

	return nil
}
