// Package chat implements the native contract at the core of the parley
// prototype. It keeps the token balances of the chat accounts, grants
// periodic token claims gated by a cooldown measured in block height, charges
// a fixed fee per message sent, and keeps one mutable pointer to the latest
// message blob stored outside of the ledger.
//
// The contract owns its state exclusively: balances can only move between an
// account and the reserve, never between two arbitrary accounts.
package chat

import (
	"io"

	"github.com/parleychat/parley"
	"github.com/parleychat/parley/core/execution"
	"github.com/parleychat/parley/core/execution/native"
	"github.com/parleychat/parley/core/store"
	"github.com/parleychat/parley/core/store/prefixed"
	"golang.org/x/xerrors"
)

// commands defines the state-changing operations of the chat contract. This
// interface helps in testing the contract.
type commands interface {
	claim(snap store.Snapshot, step execution.Step) error
	send(snap store.Snapshot, step execution.Step) error
	setRoom(snap store.Snapshot, step execution.Step) error
	setCooldown(snap store.Snapshot, step execution.Step) error
}

const (
	// ContractName is the name of the contract.
	ContractName = "github.com/parleychat/parley.Chat"

	// ContractUID is the prefix isolating the contract keys in the state.
	ContractUID = "CHAT"

	// CmdArg is the argument's name to indicate the kind of command we want
	// to run on the contract. Should be one of the Command type.
	CmdArg = "chat:command"

	// MessageArg is the argument's name in the transaction that contains the
	// content pointer of the message being sent.
	MessageArg = "chat:message"

	// RoomArg is the argument's name in the transaction that contains the
	// room content pointer.
	RoomArg = "chat:room"

	// CooldownArg is the argument's name in the transaction that contains the
	// new cooldown length, in blocks, as a decimal string.
	CooldownArg = "chat:cooldown"
)

// Command defines a type of command for the chat contract.
type Command string

const (
	// CmdClaim defines the command to claim the accumulated token grants.
	CmdClaim Command = "CLAIM"

	// CmdSend defines the command to pay for a message and publish its
	// content pointer.
	CmdSend Command = "SEND"

	// CmdSetRoom defines the command to overwrite the room content pointer.
	CmdSetRoom Command = "SET_ROOM"

	// CmdSetCooldown defines the owner-only command to replace the claim
	// cooldown.
	CmdSetCooldown Command = "SET_COOLDOWN"
)

// Taxonomy of the failures a command can report. They are wrapped with
// context, use xerrors.Is to distinguish them.
var (
	// ErrInsufficientFunds indicates that the caller balance cannot cover a
	// debit.
	ErrInsufficientFunds = xerrors.New("insufficient funds")

	// ErrInsufficientReserve indicates that the reserve cannot cover a claim
	// payout.
	ErrInsufficientReserve = xerrors.New("insufficient reserve")

	// ErrUnauthorized indicates that a non-owner invoked an owner-only
	// command.
	ErrUnauthorized = xerrors.New("unauthorized")

	// ErrNotEligible indicates a claim attempted before the cooldown elapsed.
	// It is a normal outcome, not a fault: the transaction is rejected with
	// no state change.
	ErrNotEligible = xerrors.New("not yet eligible")
)

// Contract is the chat ledger contract.
//
// - implements native.Contract
type Contract struct {
	// cmd provides the commands that can be executed by this smart contract.
	cmd commands

	// printer is the output used by the commands to report their outcome.
	printer io.Writer
}

// NewContract creates a new chat contract.
func NewContract() Contract {
	contract := Contract{
		printer: infoLog{},
	}

	contract.cmd = chatCommand{Contract: &contract}

	return contract
}

// RegisterContract registers the chat contract to the given execution
// service.
func RegisterContract(exec *native.Service, c Contract) {
	exec.Set(ContractName, c)
}

// Execute implements native.Contract. It runs the appropriate command over
// the contract's own key namespace.
func (c Contract) Execute(snap store.Snapshot, step execution.Step) error {
	snap = prefixed.NewSnapshot(ContractUID, snap)

	cmd := step.Current.GetArg(CmdArg)
	if len(cmd) == 0 {
		return xerrors.Errorf("'%s' not found in tx arg", CmdArg)
	}

	switch Command(cmd) {
	case CmdClaim:
		err := c.cmd.claim(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to CLAIM: %w", err)
		}
	case CmdSend:
		err := c.cmd.send(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to SEND: %w", err)
		}
	case CmdSetRoom:
		err := c.cmd.setRoom(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to SET_ROOM: %w", err)
		}
	case CmdSetCooldown:
		err := c.cmd.setCooldown(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to SET_COOLDOWN: %w", err)
		}
	default:
		return xerrors.Errorf("unknown command: %s", cmd)
	}

	return nil
}

// chatCommand implements the commands of the chat contract.
//
// - implements commands
type chatCommand struct {
	*Contract
}

// infoLog defines an output using zerolog.
//
// - implements io.Writer
type infoLog struct{}

func (h infoLog) Write(p []byte) (int, error) {
	parley.Logger.Info().Msg(string(p))

	return len(p), nil
}
