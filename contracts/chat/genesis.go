package chat

import (
	"github.com/parleychat/parley/core/access"
	"github.com/parleychat/parley/core/store"
	"github.com/parleychat/parley/core/store/prefixed"
	"golang.org/x/xerrors"
)

// Params holds the genesis parameters of the chat ledger.
type Params struct {
	// TotalSupply is the fixed amount of tokens in existence. The whole
	// supply starts in the reserve, there is no mint or burn afterwards.
	TotalSupply uint64

	// DailyTokens is the size of one claim grant.
	DailyTokens uint64

	// TokensPerMessage is the fee charged per message sent.
	TokensPerMessage uint64

	// BlocksPerClaim is the cooldown, in blocks, between successive claims.
	BlocksPerClaim uint64
}

// Genesis writes the initial state of the contract: the owner, the tunable
// parameters and the reserve funded with the whole supply. The owner is fixed
// for the lifetime of the ledger, no mutator exists.
func Genesis(snap store.Snapshot, owner access.Identity, params Params) error {
	snap = prefixed.NewSnapshot(ContractUID, snap)

	text, err := owner.MarshalText()
	if err != nil {
		return xerrors.Errorf("couldn't marshal owner: %v", err)
	}

	err = snap.Set([]byte(ownerKey), text)
	if err != nil {
		return xerrors.Errorf("failed to set owner: %v", err)
	}

	for key, value := range map[string]uint64{
		supplyKey:   params.TotalSupply,
		dailyKey:    params.DailyTokens,
		perMsgKey:   params.TokensPerMessage,
		cooldownKey: params.BlocksPerClaim,
	} {
		err = setParam(snap, key, value)
		if err != nil {
			return err
		}
	}

	err = newLedger(snap).setReserve(params.TotalSupply)
	if err != nil {
		return err
	}

	return nil
}
