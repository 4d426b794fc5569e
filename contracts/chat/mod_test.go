package chat

import (
	"testing"

	"github.com/parleychat/parley/core/execution"
	"github.com/parleychat/parley/core/execution/native"
	"github.com/parleychat/parley/core/store"
	"github.com/parleychat/parley/core/txn"
	"github.com/parleychat/parley/core/txn/signed"
	"github.com/parleychat/parley/internal/testing/fake"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	contract := NewContract()

	err := contract.Execute(fake.NewSnapshot(), makeStep(t, 1))
	require.EqualError(t, err, "'chat:command' not found in tx arg")

	contract.cmd = fakeCmd{err: fake.GetError()}

	err = contract.Execute(fake.NewSnapshot(), makeStep(t, 1, CmdArg, "CLAIM"))
	require.EqualError(t, err, fake.Err("failed to CLAIM"))

	err = contract.Execute(fake.NewSnapshot(), makeStep(t, 1, CmdArg, "SEND"))
	require.EqualError(t, err, fake.Err("failed to SEND"))

	err = contract.Execute(fake.NewSnapshot(), makeStep(t, 1, CmdArg, "SET_ROOM"))
	require.EqualError(t, err, fake.Err("failed to SET_ROOM"))

	err = contract.Execute(fake.NewSnapshot(), makeStep(t, 1, CmdArg, "SET_COOLDOWN"))
	require.EqualError(t, err, fake.Err("failed to SET_COOLDOWN"))

	err = contract.Execute(fake.NewSnapshot(), makeStep(t, 1, CmdArg, "fake"))
	require.EqualError(t, err, "unknown command: fake")

	contract.cmd = fakeCmd{}
	err = contract.Execute(fake.NewSnapshot(), makeStep(t, 1, CmdArg, "CLAIM"))
	require.NoError(t, err)
}

func TestInfoLog(t *testing.T) {
	log := infoLog{}

	n, err := log.Write([]byte{0b0, 0b1})
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestRegisterContract(t *testing.T) {
	RegisterContract(native.NewExecution(), NewContract())
}

// TestContract_Lifecycle replays a full exchange through the execution
// service: a first claim, a paid message, a premature second claim and a
// claim after the cooldown. The fixed-supply invariant must hold after every
// step.
func TestContract_Lifecycle(t *testing.T) {
	params := Params{
		TotalSupply:      1000,
		DailyTokens:      12,
		TokensPerMessage: 3,
		BlocksPerClaim:   100,
	}

	snap := fake.NewSnapshot()
	require.NoError(t, Genesis(snap, fake.PublicKey{}, params))

	exec := native.NewExecution()
	RegisterContract(exec, NewContract())

	alice := fake.PublicKey{}

	// First ever claim at height 0 grants exactly one daily grant.
	res, err := exec.Execute(snap, makeStep(t, 0,
		native.ContractArg, ContractName, CmdArg, "CLAIM"))
	require.NoError(t, err)
	require.True(t, res.Accepted)

	requireSupply(t, snap, 0, params, alice)
	requireBalance(t, snap, 0, alice, 12)

	// One message at height 1 costs the fee and records height-1.
	res, err = exec.Execute(snap, makeStep(t, 1,
		native.ContractArg, ContractName, CmdArg, "SEND", MessageArg, "deadbeef"))
	require.NoError(t, err)
	require.True(t, res.Accepted)

	requireSupply(t, snap, 1, params, alice)
	requireBalance(t, snap, 1, alice, 9)

	reader := NewReader(snap, 1)

	history, err := reader.MessageHistory(alice)
	require.NoError(t, err)
	require.Equal(t, []int64{0}, history)

	latest, err := reader.LatestMessage()
	require.NoError(t, err)
	require.Equal(t, "deadbeef", latest)

	// Claiming again at height 50 is rejected with no state change.
	res, err = exec.Execute(snap, makeStep(t, 50,
		native.ContractArg, ContractName, CmdArg, "CLAIM"))
	require.NoError(t, err)
	require.False(t, res.Accepted)

	requireSupply(t, snap, 50, params, alice)
	requireBalance(t, snap, 50, alice, 9)

	// One whole cooldown elapsed at height 102: one more grant.
	res, err = exec.Execute(snap, makeStep(t, 102,
		native.ContractArg, ContractName, CmdArg, "CLAIM"))
	require.NoError(t, err)
	require.True(t, res.Accepted)

	requireSupply(t, snap, 102, params, alice)
	requireBalance(t, snap, 102, alice, 21)
}

// -----------------------------------------------------------------------------
// Utility functions

func makeStep(t *testing.T, height uint64, args ...string) execution.Step {
	return execution.Step{Height: height, Current: makeTx(t, args...)}
}

func makeTx(t *testing.T, args ...string) txn.Transaction {
	options := []signed.TransactionOption{}
	for i := 0; i < len(args)-1; i += 2 {
		options = append(options, signed.WithArg(args[i], []byte(args[i+1])))
	}

	tx, err := signed.NewTransaction(0, fake.PublicKey{}, options...)
	require.NoError(t, err)

	return tx
}

func requireBalance(t *testing.T, snap store.Snapshot, height uint64, pk fake.PublicKey, expected uint64) {
	t.Helper()

	balance, err := NewReader(snap, height).BalanceOf(pk)
	require.NoError(t, err)
	require.Equal(t, expected, balance)
}

func requireSupply(t *testing.T, snap store.Snapshot, height uint64, params Params, accounts ...fake.PublicKey) {
	t.Helper()

	reader := NewReader(snap, height)

	total, err := reader.Reserve()
	require.NoError(t, err)

	for _, pk := range accounts {
		balance, err := reader.BalanceOf(pk)
		require.NoError(t, err)

		total += balance
	}

	require.Equal(t, params.TotalSupply, total)
}

type fakeCmd struct {
	err error
}

func (c fakeCmd) claim(_ store.Snapshot, _ execution.Step) error {
	return c.err
}

func (c fakeCmd) send(_ store.Snapshot, _ execution.Step) error {
	return c.err
}

func (c fakeCmd) setRoom(_ store.Snapshot, _ execution.Step) error {
	return c.err
}

func (c fakeCmd) setCooldown(_ store.Snapshot, _ execution.Step) error {
	return c.err
}
