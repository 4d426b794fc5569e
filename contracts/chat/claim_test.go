package chat

import (
	"testing"

	"github.com/parleychat/parley/core/store"
	"github.com/parleychat/parley/core/store/prefixed"
	"github.com/parleychat/parley/internal/testing/fake"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestCommand_Claim(t *testing.T) {
	base, snap := makeState(t, Params{
		TotalSupply:      1000,
		DailyTokens:      12,
		TokensPerMessage: 3,
		BlocksPerClaim:   100,
	})

	contract := NewContract()

	cmd := chatCommand{
		Contract: &contract,
	}

	// A fresh account claims one grant whatever the height.
	err := cmd.claim(snap, makeStep(t, 0, CmdArg, "CLAIM"))
	require.NoError(t, err)

	requireBalance(t, base, 0, fake.PublicKey{}, 12)

	reserve, err := NewReader(base, 0).Reserve()
	require.NoError(t, err)
	require.Equal(t, uint64(988), reserve)

	// Claiming again before the cooldown elapsed is the not-yet outcome.
	err = cmd.claim(snap, makeStep(t, 50, CmdArg, "CLAIM"))
	require.Error(t, err)
	require.True(t, xerrors.Is(err, ErrNotEligible))

	requireBalance(t, base, 50, fake.PublicKey{}, 12)

	// One whole cooldown period elapsed.
	err = cmd.claim(snap, makeStep(t, 102, CmdArg, "CLAIM"))
	require.NoError(t, err)

	requireBalance(t, base, 102, fake.PublicKey{}, 24)

	// Seven periods of backlog pay out seven grants at once.
	err = cmd.claim(snap, makeStep(t, 802, CmdArg, "CLAIM"))
	require.NoError(t, err)

	requireBalance(t, base, 802, fake.PublicKey{}, 24+7*12)
}

func TestCommand_Claim_EmptyReserve(t *testing.T) {
	base, snap := makeState(t, Params{
		TotalSupply:      5,
		DailyTokens:      12,
		BlocksPerClaim:   100,
		TokensPerMessage: 3,
	})

	contract := NewContract()

	cmd := chatCommand{
		Contract: &contract,
	}

	// The schedule is unlinked to the reserve funding, so a claim can exceed
	// it. Only that claim fails, and with no side effect.
	err := cmd.claim(snap, makeStep(t, 0, CmdArg, "CLAIM"))
	require.Error(t, err)
	require.True(t, xerrors.Is(err, ErrInsufficientReserve))

	requireBalance(t, base, 0, fake.PublicKey{}, 0)

	reserve, err := NewReader(base, 0).Reserve()
	require.NoError(t, err)
	require.Equal(t, uint64(5), reserve)
}

func TestCommand_Claim_ZeroCooldown(t *testing.T) {
	base, snap := makeState(t, Params{
		TotalSupply:      1000,
		DailyTokens:      10,
		BlocksPerClaim:   0,
		TokensPerMessage: 3,
	})

	contract := NewContract()

	cmd := chatCommand{
		Contract: &contract,
	}

	// Every account is immediately and repeatedly claimable.
	err := cmd.claim(snap, makeStep(t, 5, CmdArg, "CLAIM"))
	require.NoError(t, err)

	err = cmd.claim(snap, makeStep(t, 6, CmdArg, "CLAIM"))
	require.NoError(t, err)

	requireBalance(t, base, 6, fake.PublicKey{}, 20)

	blocks, err := NewReader(base, 6).BlocksTillClaimable(fake.PublicKey{})
	require.NoError(t, err)
	require.Equal(t, uint64(0), blocks)
}

func TestCommand_Claim_BadStore(t *testing.T) {
	contract := NewContract()

	cmd := chatCommand{
		Contract: &contract,
	}

	snap := prefixed.NewSnapshot(ContractUID, fake.NewBadSnapshot())

	err := cmd.claim(snap, makeStep(t, 0, CmdArg, "CLAIM"))
	require.EqualError(t, err, fake.Err("failed to get account"))
}

func TestClaimableTokens(t *testing.T) {
	// Never claimed: one grant, regardless of the height.
	require.Equal(t, uint64(12), claimableTokens(12, 100, 0, neverClaimed))
	require.Equal(t, uint64(12), claimableTokens(12, 100, 424242, neverClaimed))

	// One grant per whole elapsed period, no cap.
	require.Equal(t, uint64(0), claimableTokens(12, 100, 50, -1))
	require.Equal(t, uint64(12), claimableTokens(12, 100, 102, -1))
	require.Equal(t, uint64(36), claimableTokens(12, 100, 301, -1))

	// Same block as the claim: nothing accrued yet.
	require.Equal(t, uint64(0), claimableTokens(12, 100, 10, 9))
}

func TestBlocksTillClaimable(t *testing.T) {
	require.Equal(t, uint64(0), blocksTillClaimable(100, 55, neverClaimed))

	// The countdown decreases as the height advances and reaches zero exactly
	// at lastClaimed + cooldown + 1.
	previous := uint64(101)
	for height := int64(0); height <= 100; height++ {
		blocks := blocksTillClaimable(100, height, -1)
		require.LessOrEqual(t, blocks, previous)
		previous = blocks
	}

	require.Equal(t, uint64(1), blocksTillClaimable(100, 99, -1))
	require.Equal(t, uint64(0), blocksTillClaimable(100, 100, -1))
	require.Equal(t, uint64(0), blocksTillClaimable(100, 4242, -1))
}

// -----------------------------------------------------------------------------
// Utility functions

// makeState returns a fresh snapshot holding the genesis state, along with
// the contract view of it.
func makeState(t *testing.T, params Params) (*fake.InMemorySnapshot, store.Snapshot) {
	base := fake.NewSnapshot()

	require.NoError(t, Genesis(base, fake.PublicKey{}, params))

	return base, prefixed.NewSnapshot(ContractUID, base)
}
