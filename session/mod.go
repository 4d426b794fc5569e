// Package session wires an identity to the ledger and to the storage peer.
//
// A session signs the state-changing operations of its account, stores and
// fetches the message bodies by pointer, and polls the read-only surface on a
// fixed interval to refresh the state displayed by the client. The ledger has
// no push mechanism, polling is the only way to observe updates.
package session

import (
	"context"
	"strconv"
	"time"

	"github.com/parleychat/parley"
	"github.com/parleychat/parley/chain"
	"github.com/parleychat/parley/contracts/chat"
	"github.com/parleychat/parley/core/access"
	"github.com/parleychat/parley/core/execution/native"
	"github.com/parleychat/parley/core/store"
	"github.com/parleychat/parley/core/txn"
	"github.com/parleychat/parley/storage/cas"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

// Message is a chat message resolved from the ledger pointer.
type Message struct {
	// Pointer is the content pointer stored on the ledger.
	Pointer string

	// Body is the content fetched from the storage peer.
	Body []byte
}

// Session is the client-side glue of one chat account.
type Session struct {
	mgr    txn.Manager
	ident  access.Identity
	ledger chain.Ledger
	blobs  cas.Store
	logger zerolog.Logger
}

// NewSession creates a session for the identity owning the transaction
// manager.
func NewSession(mgr txn.Manager, ident access.Identity, ledger chain.Ledger, blobs cas.Store) *Session {
	return &Session{
		mgr:    mgr,
		ident:  ident,
		ledger: ledger,
		blobs:  blobs,
		logger: parley.Logger.With().Stringer("session", xid.New()).Logger(),
	}
}

// Claim submits a claim for the accumulated token grants. A claim attempted
// before the cooldown elapsed comes back rejected with no state change, which
// is a normal outcome.
func (s *Session) Claim(ctx context.Context) (chain.Result, error) {
	return s.submit(ctx, chat.CmdClaim)
}

// Send stores the message body with the storage peer and submits the send
// operation with the resulting pointer. The returned pointer is set even when
// the ledger rejects the operation, as the blob is already stored.
func (s *Session) Send(ctx context.Context, body []byte) (string, chain.Result, error) {
	pointer, err := s.blobs.Store(body)
	if err != nil {
		return "", chain.Result{}, xerrors.Errorf("failed to store body: %v", err)
	}

	res, err := s.submit(ctx, chat.CmdSend, txn.Arg{
		Key:   chat.MessageArg,
		Value: []byte(pointer),
	})
	if err != nil {
		return pointer, chain.Result{}, err
	}

	return pointer, res, nil
}

// SetRoom overwrites the room content pointer.
func (s *Session) SetRoom(ctx context.Context, pointer string) (chain.Result, error) {
	return s.submit(ctx, chat.CmdSetRoom, txn.Arg{
		Key:   chat.RoomArg,
		Value: []byte(pointer),
	})
}

// SetCooldown replaces the claim cooldown. Only the owner session can expect
// this to be accepted.
func (s *Session) SetCooldown(ctx context.Context, blocks uint64) (chain.Result, error) {
	return s.submit(ctx, chat.CmdSetCooldown, txn.Arg{
		Key:   chat.CooldownArg,
		Value: []byte(strconv.FormatUint(blocks, 10)),
	})
}

// Balance returns the token balance of the session account.
func (s *Session) Balance() (uint64, error) {
	var balance uint64

	err := s.read(func(reader chat.Reader) error {
		var err error
		balance, err = reader.BalanceOf(s.ident)

		return err
	})

	return balance, err
}

// BlocksTillClaimable returns how many blocks remain before the session
// account can claim.
func (s *Session) BlocksTillClaimable() (uint64, error) {
	var blocks uint64

	err := s.read(func(reader chat.Reader) error {
		var err error
		blocks, err = reader.BlocksTillClaimable(s.ident)

		return err
	})

	return blocks, err
}

// History returns the recorded heights of the messages sent by the session
// account.
func (s *Session) History() ([]int64, error) {
	var history []int64

	err := s.read(func(reader chat.Reader) error {
		var err error
		history, err = reader.MessageHistory(s.ident)

		return err
	})

	return history, err
}

// Latest resolves the latest message of the room: the pointer from the
// ledger, the body from the storage peer. It returns an empty message when
// nothing was ever sent.
func (s *Session) Latest() (Message, error) {
	var pointer string

	err := s.read(func(reader chat.Reader) error {
		var err error
		pointer, err = reader.LatestMessage()

		return err
	})
	if err != nil {
		return Message{}, err
	}

	if pointer == "" {
		return Message{}, nil
	}

	body, err := s.blobs.Read(pointer)
	if err != nil {
		return Message{}, xerrors.Errorf("failed to resolve pointer: %v", err)
	}

	return Message{Pointer: pointer, Body: body}, nil
}

// Watch polls the ledger on the given interval and invokes the callback for
// every new latest message, until the context is done.
func (s *Session) Watch(ctx context.Context, interval time.Duration, fn func(Message)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := ""

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			msg, err := s.Latest()
			if err != nil {
				s.logger.Warn().Err(err).Msg("poll failed")
				continue
			}

			if msg.Pointer != "" && msg.Pointer != last {
				last = msg.Pointer
				fn(msg)
			}
		}
	}
}

func (s *Session) submit(ctx context.Context, cmd chat.Command, args ...txn.Arg) (chain.Result, error) {
	all := append([]txn.Arg{
		{Key: native.ContractArg, Value: []byte(chat.ContractName)},
		{Key: chat.CmdArg, Value: []byte(cmd)},
	}, args...)

	tx, err := s.mgr.Make(all...)
	if err != nil {
		return chain.Result{}, xerrors.Errorf("failed to make tx: %v", err)
	}

	res, err := s.ledger.AddTransaction(ctx, tx)
	if err != nil {
		return chain.Result{}, xerrors.Errorf("failed to submit tx: %v", err)
	}

	if !res.Accepted {
		s.logger.Info().Str("reason", res.Message).Msgf("%s rejected", cmd)
	}

	return res, nil
}

func (s *Session) read(fn func(chat.Reader) error) error {
	return s.ledger.Read(func(r store.Readable, height uint64) error {
		return fn(chat.NewReader(r, height))
	})
}
