// Package parley is a prototype decentralized chat client. The repository
// implements the on-ledger core of the prototype: a token ledger with a
// cooldown-gated claim schedule, a fee-metered message log and the owner
// tunable parameters, executed as a native contract by a sequential
// execution environment that orders operations by block height.
package parley

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(zerolog.DebugLevel)
