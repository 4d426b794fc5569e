// Parley is the command line client of the prototype decentralized chat. It
// runs the whole stack in-process: the bbolt-backed chain, the native chat
// contract, the content-addressed blob store and the signing session.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/parleychat/parley"
	"github.com/parleychat/parley/chain/simple"
	"github.com/parleychat/parley/contracts/chat"
	"github.com/parleychat/parley/core/access"
	"github.com/parleychat/parley/core/execution/native"
	"github.com/parleychat/parley/core/store"
	"github.com/parleychat/parley/core/store/kv"
	"github.com/parleychat/parley/core/txn/signed"
	"github.com/parleychat/parley/crypto/ed25519"
	"github.com/parleychat/parley/crypto/loader"
	"github.com/parleychat/parley/session"
	"github.com/parleychat/parley/storage/cas"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

func main() {
	err := makeApp().Run(os.Args)
	if err != nil {
		parley.Logger.Fatal().Err(err).Msg("command failed")
	}
}

func makeApp() *cli.App {
	return &cli.App{
		Name:  "parley",
		Usage: "prototype decentralized chat client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "parley.yml",
				Usage: "path of the YAML configuration",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "override the database path",
			},
			&cli.StringFlag{
				Name:  "key",
				Usage: "override the private key path",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "write the genesis state, making this key the owner",
				Action: withEnv(initAction),
			},
			{
				Name:   "claim",
				Usage:  "claim the accumulated token grants",
				Action: withEnv(claimAction),
			},
			{
				Name:      "send",
				Usage:     "pay the fee and send a message",
				ArgsUsage: "<message>",
				Action:    withEnv(sendAction),
			},
			{
				Name:   "balance",
				Usage:  "print the balance and the claim countdown",
				Action: withEnv(balanceAction),
			},
			{
				Name:   "history",
				Usage:  "print the send history of the account",
				Action: withEnv(historyAction),
			},
			{
				Name:   "latest",
				Usage:  "print the latest message of the room",
				Action: withEnv(latestAction),
			},
			{
				Name:      "set-room",
				Usage:     "overwrite the room content pointer",
				ArgsUsage: "<pointer>",
				Action:    withEnv(setRoomAction),
			},
			{
				Name:      "set-cooldown",
				Usage:     "replace the claim cooldown (owner only)",
				ArgsUsage: "<blocks>",
				Action:    withEnv(setCooldownAction),
			},
			{
				Name:   "watch",
				Usage:  "poll the room and print new messages",
				Action: withEnv(watchAction),
			},
		},
	}
}

// env is the in-process stack shared by the commands.
type env struct {
	cfg    Config
	ident  access.Identity
	ledger *simple.Ledger
	sess   *session.Session
}

type envAction func(c *cli.Context, e env) error

// withEnv opens the database and builds the stack before running the action.
func withEnv(action envAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c.String("config"))
		if err != nil {
			return err
		}

		if path := c.String("db"); path != "" {
			cfg.DBPath = path
		}

		if path := c.String("key"); path != "" {
			cfg.KeyPath = path
		}

		signer, err := loadSigner(cfg.KeyPath)
		if err != nil {
			return err
		}

		db, err := kv.New(cfg.DBPath)
		if err != nil {
			return xerrors.Errorf("failed to open db: %v", err)
		}

		defer db.Close()

		exec := native.NewExecution()
		chat.RegisterContract(exec, chat.NewContract())

		ledger, err := simple.NewLedger(db, exec)
		if err != nil {
			return err
		}

		blobs, err := cas.NewStore(db)
		if err != nil {
			return err
		}

		ident := signer.GetPublicKey()
		sess := session.NewSession(signed.NewManager(signer), ident, ledger, blobs)

		return action(c, env{
			cfg:    cfg,
			ident:  ident,
			ledger: ledger,
			sess:   sess,
		})
	}
}

// keyGenerator generates a new private key for the loader.
//
// - implements loader.Generator
type keyGenerator struct{}

func (keyGenerator) Generate() ([]byte, error) {
	return ed25519.NewSigner().MarshalPrivateKey()
}

func loadSigner(path string) (ed25519.Signer, error) {
	data, err := loader.NewFileLoader(path).LoadOrCreate(keyGenerator{})
	if err != nil {
		return ed25519.Signer{}, xerrors.Errorf("failed to load key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return ed25519.Signer{}, xerrors.Errorf("failed to restore key: %v", err)
	}

	return signer, nil
}

func initAction(c *cli.Context, e env) error {
	params := chat.Params{
		TotalSupply:      e.cfg.Genesis.TotalSupply,
		DailyTokens:      e.cfg.Genesis.DailyTokens,
		TokensPerMessage: e.cfg.Genesis.TokensPerMessage,
		BlocksPerClaim:   e.cfg.Genesis.BlocksPerClaim,
	}

	err := e.ledger.Genesis(func(snap store.Snapshot) error {
		return chat.Genesis(snap, e.ident, params)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "ledger initialized, owner %v\n", e.ident)

	return nil
}

func claimAction(c *cli.Context, e env) error {
	res, err := e.sess.Claim(context.Background())
	if err != nil {
		return err
	}

	if !res.Accepted {
		fmt.Fprintf(c.App.Writer, "claim rejected: %s\n", res.Message)
		return nil
	}

	balance, err := e.sess.Balance()
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "claimed at height %d, balance %d\n", res.Height, balance)

	return nil
}

func sendAction(c *cli.Context, e env) error {
	if c.NArg() == 0 {
		return xerrors.New("expected a message")
	}

	pointer, res, err := e.sess.Send(context.Background(), []byte(c.Args().First()))
	if err != nil {
		return err
	}

	if !res.Accepted {
		fmt.Fprintf(c.App.Writer, "send rejected: %s\n", res.Message)
		return nil
	}

	fmt.Fprintf(c.App.Writer, "sent %s at height %d\n", pointer, res.Height)

	return nil
}

func balanceAction(c *cli.Context, e env) error {
	balance, err := e.sess.Balance()
	if err != nil {
		return err
	}

	blocks, err := e.sess.BlocksTillClaimable()
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "balance %d, claimable in %d block(s)\n", balance, blocks)

	return nil
}

func historyAction(c *cli.Context, e env) error {
	history, err := e.sess.History()
	if err != nil {
		return err
	}

	for _, height := range history {
		fmt.Fprintf(c.App.Writer, "%d\n", height)
	}

	return nil
}

func latestAction(c *cli.Context, e env) error {
	msg, err := e.sess.Latest()
	if err != nil {
		return err
	}

	if msg.Pointer == "" {
		fmt.Fprintln(c.App.Writer, "no message yet")
		return nil
	}

	fmt.Fprintf(c.App.Writer, "%s: %s\n", msg.Pointer, msg.Body)

	return nil
}

func setRoomAction(c *cli.Context, e env) error {
	if c.NArg() == 0 {
		return xerrors.New("expected a pointer")
	}

	res, err := e.sess.SetRoom(context.Background(), c.Args().First())
	if err != nil {
		return err
	}

	if !res.Accepted {
		fmt.Fprintf(c.App.Writer, "set-room rejected: %s\n", res.Message)
	}

	return nil
}

func setCooldownAction(c *cli.Context, e env) error {
	if c.NArg() == 0 {
		return xerrors.New("expected a number of blocks")
	}

	blocks, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return xerrors.Errorf("invalid number of blocks: %v", err)
	}

	res, err := e.sess.SetCooldown(context.Background(), blocks)
	if err != nil {
		return err
	}

	if !res.Accepted {
		fmt.Fprintf(c.App.Writer, "set-cooldown rejected: %s\n", res.Message)
	}

	return nil
}

// signalContext returns a context canceled by an interrupt, so that watch
// stops cleanly.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	go func() {
		<-sigs
		cancel()
	}()

	return ctx
}

func watchAction(c *cli.Context, e env) error {
	interval, err := time.ParseDuration(e.cfg.PollInterval)
	if err != nil {
		return xerrors.Errorf("invalid poll interval: %v", err)
	}

	err = e.sess.Watch(signalContext(), interval, func(msg session.Message) {
		fmt.Fprintf(c.App.Writer, "%s\n", msg.Body)
	})
	if err != nil && err != context.Canceled {
		return err
	}

	return nil
}
