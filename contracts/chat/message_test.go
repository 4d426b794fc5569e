package chat

import (
	"bytes"
	"testing"

	"github.com/parleychat/parley/core/store/prefixed"
	"github.com/parleychat/parley/internal/testing/fake"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestCommand_Send(t *testing.T) {
	base, snap := makeState(t, Params{
		TotalSupply:      100,
		DailyTokens:      12,
		TokensPerMessage: 3,
		BlocksPerClaim:   100,
	})

	contract := NewContract()

	cmd := chatCommand{
		Contract: &contract,
	}

	err := cmd.send(snap, makeStep(t, 1, CmdArg, "SEND"))
	require.EqualError(t, err, "'chat:message' not found in tx arg")

	// A broke account cannot send: balances and history stay untouched.
	err = cmd.send(snap, makeStep(t, 1, CmdArg, "SEND", MessageArg, "cafe"))
	require.Error(t, err)
	require.True(t, xerrors.Is(err, ErrInsufficientFunds))

	history, err := NewReader(base, 1).MessageHistory(fake.PublicKey{})
	require.NoError(t, err)
	require.Empty(t, history)

	// Fund the account, then send twice.
	require.NoError(t, cmd.claim(snap, makeStep(t, 0, CmdArg, "CLAIM")))

	err = cmd.send(snap, makeStep(t, 1, CmdArg, "SEND", MessageArg, "cafe"))
	require.NoError(t, err)

	err = cmd.send(snap, makeStep(t, 7, CmdArg, "SEND", MessageArg, "f00d"))
	require.NoError(t, err)

	reader := NewReader(base, 7)

	// Two fees paid, two sends recorded with height-1, and the pointer is
	// last-write-wins.
	requireBalance(t, base, 7, fake.PublicKey{}, 6)

	reserve, err := reader.Reserve()
	require.NoError(t, err)
	require.Equal(t, uint64(94), reserve)

	history, err = reader.MessageHistory(fake.PublicKey{})
	require.NoError(t, err)
	require.Equal(t, []int64{0, 6}, history)

	latest, err := reader.LatestMessage()
	require.NoError(t, err)
	require.Equal(t, "f00d", latest)
}

func TestCommand_Send_BadStore(t *testing.T) {
	contract := NewContract()

	cmd := chatCommand{
		Contract: &contract,
	}

	snap := prefixed.NewSnapshot(ContractUID, fake.NewBadSnapshot())

	err := cmd.send(snap, makeStep(t, 1, CmdArg, "SEND", MessageArg, "cafe"))
	require.EqualError(t, err, fake.Err("failed to get account"))
}

func TestCommand_SetRoom(t *testing.T) {
	base, snap := makeState(t, Params{TotalSupply: 100})

	contract := NewContract()

	buffer := &bytes.Buffer{}
	contract.printer = buffer

	cmd := chatCommand{
		Contract: &contract,
	}

	err := cmd.setRoom(snap, makeStep(t, 1, CmdArg, "SET_ROOM"))
	require.EqualError(t, err, "'chat:room' not found in tx arg")

	// No fee, no access restriction: any caller overwrites the pointer.
	err = cmd.setRoom(snap, makeStep(t, 1, CmdArg, "SET_ROOM", RoomArg, "badc0de"))
	require.NoError(t, err)
	require.Equal(t, "room pointer set to badc0de", buffer.String())

	pointer, err := NewReader(base, 1).RoomPointer()
	require.NoError(t, err)
	require.Equal(t, "badc0de", pointer)

	badSnap := prefixed.NewSnapshot(ContractUID, fake.NewBadSnapshot())

	err = cmd.setRoom(badSnap, makeStep(t, 1, CmdArg, "SET_ROOM", RoomArg, "badc0de"))
	require.EqualError(t, err, fake.Err("failed to set room pointer"))
}
