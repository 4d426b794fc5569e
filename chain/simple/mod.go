// Package simple implements a single-node execution environment backed by a
// bbolt database.
//
// Transactions are serialized by a mutex and executed one per block inside a
// database transaction: returning an error from the update discards every
// write, which delivers the all-or-nothing semantics the contract relies on.
// The height advances for rejected transactions too, so that the counter
// observed by the executions never goes backwards.
package simple

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/parleychat/parley"
	"github.com/parleychat/parley/chain"
	"github.com/parleychat/parley/core/execution"
	"github.com/parleychat/parley/core/store"
	"github.com/parleychat/parley/core/store/kv"
	"github.com/parleychat/parley/core/txn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

var (
	stateBucket = []byte("parley-state")
	chainBucket = []byte("parley-chain")

	heightKey = []byte("height")

	// errRejected forces the database transaction to roll back when the
	// execution rejects the submitted transaction.
	errRejected = xerrors.New("transaction rejected")
)

// defines prometheus metrics
var (
	promHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "parley_chain_height",
		Help: "current block height",
	})

	promAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parley_chain_transactions_accepted_total",
		Help: "total number of accepted transactions",
	})

	promRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parley_chain_transactions_rejected_total",
		Help: "total number of rejected transactions",
	})
)

var promOnce sync.Once

// Ledger is a sequential execution environment over a bbolt database.
//
// - implements chain.Ledger
type Ledger struct {
	sync.Mutex

	db     kv.DB
	exec   execution.Service
	logger zerolog.Logger
}

// NewLedger creates a new environment over the database. The state is empty
// until Genesis is called once.
func NewLedger(db kv.DB, exec execution.Service) (*Ledger, error) {
	promOnce.Do(func() {
		prometheus.MustRegister(promHeight, promAccepted, promRejected)
	})

	// Make sure both buckets exist so that reads work on a fresh database.
	for _, bucket := range [][]byte{stateBucket, chainBucket} {
		err := db.Update(bucket, func(kv.Bucket) error { return nil })
		if err != nil {
			return nil, xerrors.Errorf("failed to create bucket: %v", err)
		}
	}

	ldgr := &Ledger{
		db:     db,
		exec:   exec,
		logger: parley.Logger.With().Str("component", "chain").Logger(),
	}

	return ldgr, nil
}

// Genesis writes the initial state at height zero using the callback. It
// returns an error if the chain already has a genesis.
func (ldgr *Ledger) Genesis(fn func(store.Snapshot) error) error {
	ldgr.Lock()
	defer ldgr.Unlock()

	_, initialized, err := ldgr.height()
	if err != nil {
		return err
	}

	if initialized {
		return xerrors.New("genesis already exists")
	}

	err = ldgr.db.Update(stateBucket, func(bucket kv.Bucket) error {
		return fn(bucketSnapshot{bucketReadable{bucket: bucket}})
	})
	if err != nil {
		return xerrors.Errorf("failed to write genesis: %v", err)
	}

	err = ldgr.setHeight(0)
	if err != nil {
		return err
	}

	ldgr.logger.Info().Msg("genesis block written")

	return nil
}

// AddTransaction implements chain.Ledger. It executes the transaction at the
// next height. A rejected transaction leaves the state untouched but still
// consumes its block.
func (ldgr *Ledger) AddTransaction(ctx context.Context, tx txn.Transaction) (chain.Result, error) {
	ldgr.Lock()
	defer ldgr.Unlock()

	if err := ctx.Err(); err != nil {
		return chain.Result{}, xerrors.Errorf("aborted before execution: %v", err)
	}

	current, initialized, err := ldgr.height()
	if err != nil {
		return chain.Result{}, err
	}

	if !initialized {
		return chain.Result{}, xerrors.New("missing genesis")
	}

	height := current + 1

	var res execution.Result

	err = ldgr.db.Update(stateBucket, func(bucket kv.Bucket) error {
		step := execution.Step{
			Height:  height,
			Current: tx,
		}

		var execErr error
		res, execErr = ldgr.exec.Execute(bucketSnapshot{bucketReadable{bucket: bucket}}, step)
		if execErr != nil {
			return execErr
		}

		if !res.Accepted {
			return errRejected
		}

		return nil
	})
	if err != nil && !xerrors.Is(err, errRejected) {
		return chain.Result{}, xerrors.Errorf("execution failed: %v", err)
	}

	err = ldgr.setHeight(height)
	if err != nil {
		return chain.Result{}, err
	}

	if res.Accepted {
		promAccepted.Inc()
	} else {
		promRejected.Inc()
	}

	ldgr.logger.Info().
		Uint64("height", height).
		Bool("accepted", res.Accepted).
		Str("reason", res.Message).
		Hex("tx", tx.GetID()).
		Msg("transaction processed")

	return chain.Result{Result: res, Height: height}, nil
}

// Read implements chain.Ledger. It runs the callback over the committed
// state.
func (ldgr *Ledger) Read(fn func(r store.Readable, height uint64) error) error {
	ldgr.Lock()
	defer ldgr.Unlock()

	current, initialized, err := ldgr.height()
	if err != nil {
		return err
	}

	if !initialized {
		return xerrors.New("missing genesis")
	}

	return ldgr.db.View(stateBucket, func(bucket kv.Bucket) error {
		return fn(bucketReadable{bucket: bucket}, current)
	})
}

func (ldgr *Ledger) height() (uint64, bool, error) {
	var height uint64
	initialized := false

	err := ldgr.db.View(chainBucket, func(bucket kv.Bucket) error {
		data := bucket.Get(heightKey)
		if data != nil {
			height = binary.LittleEndian.Uint64(data)
			initialized = true
		}

		return nil
	})
	if err != nil {
		return 0, false, xerrors.Errorf("failed to read height: %v", err)
	}

	return height, initialized, nil
}

func (ldgr *Ledger) setHeight(height uint64) error {
	err := ldgr.db.Update(chainBucket, func(bucket kv.Bucket) error {
		buffer := make([]byte, 8)
		binary.LittleEndian.PutUint64(buffer, height)

		return bucket.Set(heightKey, buffer)
	})
	if err != nil {
		return xerrors.Errorf("failed to store height: %v", err)
	}

	promHeight.Set(float64(height))

	return nil
}

// bucketReadable adapts a database bucket to the store.Readable interface.
// The values are copied as they are only valid for the duration of the
// database transaction.
//
// - implements store.Readable
type bucketReadable struct {
	bucket kv.Bucket
}

func (r bucketReadable) Get(key []byte) ([]byte, error) {
	value := r.bucket.Get(key)
	if value == nil {
		return nil, nil
	}

	return append([]byte{}, value...), nil
}

// bucketSnapshot adapts a database bucket to the store.Snapshot interface.
//
// - implements store.Snapshot
type bucketSnapshot struct {
	bucketReadable
}

func (s bucketSnapshot) Set(key, value []byte) error {
	return s.bucket.Set(key, value)
}

func (s bucketSnapshot) Delete(key []byte) error {
	return s.bucket.Delete(key)
}
