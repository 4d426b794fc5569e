package chat

import (
	"fmt"

	"github.com/parleychat/parley/core/execution"
	"github.com/parleychat/parley/core/store"
	"golang.org/x/xerrors"
)

// claim implements commands. It pays out the accumulated token grants of the
// caller, one full daily grant per whole cooldown period elapsed since the
// last claim. The first ever claim of an account grants exactly one daily
// grant, regardless of the height.
//
// All the arithmetic follows one off-by-one convention: a successful claim
// records height-1, and the elapsed time is height - lastClaimed - 1.
func (c chatCommand) claim(snap store.Snapshot, step execution.Step) error {
	ld := newLedger(snap)

	rec, key, err := ld.account(step.Current.GetIdentity())
	if err != nil {
		return err
	}

	daily, err := getParam(snap, dailyKey)
	if err != nil {
		return err
	}

	cooldown, err := getParam(snap, cooldownKey)
	if err != nil {
		return err
	}

	height := int64(step.Height)

	if rec.LastClaimed != neverClaimed && height-rec.LastClaimed-1 < int64(cooldown) {
		return xerrors.Errorf("%w: %d more block(s)",
			ErrNotEligible, blocksTillClaimable(cooldown, height, rec.LastClaimed))
	}

	value := claimableTokens(daily, cooldown, height, rec.LastClaimed)

	rec.LastClaimed = height - 1

	err = ld.fromReserve(&rec, value)
	if err != nil {
		return err
	}

	err = ld.save(key, rec)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.printer, "claimed %d token(s)", value)

	return nil
}

// claimableTokens computes the tokens an account can claim at the given
// height. A zero cooldown counts one period per elapsed block.
func claimableTokens(daily, cooldown uint64, height, lastClaimed int64) uint64 {
	if lastClaimed == neverClaimed {
		return daily
	}

	elapsed := height - lastClaimed - 1
	if elapsed < 0 {
		return 0
	}

	period := int64(cooldown)
	if period == 0 {
		period = 1
	}

	return uint64(elapsed/period) * daily
}

// blocksTillClaimable computes how many blocks remain before the account can
// claim again. An account that never claimed can claim right away.
func blocksTillClaimable(cooldown uint64, height, lastClaimed int64) uint64 {
	if lastClaimed == neverClaimed {
		return 0
	}

	remaining := int64(cooldown) - (height - lastClaimed - 1)
	if remaining < 0 {
		return 0
	}

	return uint64(remaining)
}
