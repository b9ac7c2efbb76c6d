// Package bolt keeps ingested records in an embedded bbolt file.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
	bolt "go.etcd.io/bbolt"
)

const (
	openTimeout = time.Second
	filePerm    = 0o600
	dirPerm     = 0o700
)

var (
	blocksBucket       = []byte("blocks")
	transactionsBucket = []byte("transactions")
)

type (
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

type transactionDocument struct {
	model.TransactionRecord
	InputCount  uint32 `cbor:"inputCount"`
	OutputCount uint32 `cbor:"outputCount"`
}

// Repository stores CBOR-encoded records keyed by hash. Writing a key again
// overwrites it, so repeated writes of a block are harmless.
type Repository struct {
	db      *bolt.DB
	metrics Metrics
}

// Open opens or creates the database file at path.
func Open(path string, metrics Metrics) (*Repository, error) {
	if path == "" {
		return nil, errors.New("bolt path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("create bolt dir: %w", err)
	}

	db, err := bolt.Open(path, filePerm, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, fmt.Errorf("bolt file %s is locked by another process", path)
		}
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{blocksBucket, transactionsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db, metrics: metrics}, nil
}

// Close releases the database file.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database is still open.
func (r *Repository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.View(func(*bolt.Tx) error { return nil })
}

// InsertBlock stores a block record under its hash.
func (r *Repository) InsertBlock(ctx context.Context, block model.BlockRecord) (err error) {
	started := time.Now()
	defer func() {
		r.observe("insert_block", err, started)
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	data, err := cbor.Marshal(block)
	if err != nil {
		return fmt.Errorf("encode block %s: %w", block.Hash, err)
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucket).Put([]byte(block.Hash), data)
	})
}

// InsertTransactions stores txs in a single bolt transaction.
func (r *Repository) InsertTransactions(ctx context.Context, txs []model.TransactionRecord) (err error) {
	if len(txs) == 0 {
		return nil
	}

	started := time.Now()
	defer func() {
		r.observe("insert_transactions", err, started)
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(btx *bolt.Tx) error {
		bucket := btx.Bucket(transactionsBucket)
		for _, tx := range txs {
			data, err := cbor.Marshal(transactionDocument{
				TransactionRecord: tx,
				InputCount:        tx.InputCount(),
				OutputCount:       tx.OutputCount(),
			})
			if err != nil {
				return fmt.Errorf("encode transaction %s: %w", tx.TxHash, err)
			}
			if err := bucket.Put([]byte(tx.TxHash), data); err != nil {
				return fmt.Errorf("put transaction %s: %w", tx.TxHash, err)
			}
		}
		return nil
	})
}

// FindTransaction decodes the transaction stored under txHash, or returns nil.
func (r *Repository) FindTransaction(ctx context.Context, txHash string) (_ *model.TransactionRecord, err error) {
	started := time.Now()
	defer func() {
		r.observe("find_transaction", err, started)
	}()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	var doc *transactionDocument
	err = r.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(transactionsBucket).Get([]byte(txHash))
		if data == nil {
			return nil
		}
		doc = &transactionDocument{}
		return cbor.Unmarshal(data, doc)
	})
	if err != nil {
		return nil, fmt.Errorf("find transaction %s: %w", txHash, err)
	}
	if doc == nil {
		return nil, nil
	}
	return &doc.TransactionRecord, nil
}

// FindBlock decodes the block stored under hash, or returns nil.
func (r *Repository) FindBlock(ctx context.Context, hash string) (*model.BlockRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var block *model.BlockRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(blocksBucket).Get([]byte(hash))
		if data == nil {
			return nil
		}
		block = &model.BlockRecord{}
		return cbor.Unmarshal(data, block)
	})
	if err != nil {
		return nil, fmt.Errorf("find block %s: %w", hash, err)
	}
	return block, nil
}

func (r *Repository) observe(operation string, err error, started time.Time) {
	if r.metrics != nil {
		r.metrics.Observe(operation, err, started)
	}
}
