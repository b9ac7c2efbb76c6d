// Package memory keeps ingested records in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
)

// Repository is a map-backed store. Records are keyed by hash, so writing the
// same block or transaction again replaces the previous copy.
type Repository struct {
	mu      sync.RWMutex
	blocks  map[string]model.BlockRecord
	txs     map[string]model.TransactionRecord
	lookups int
}

// NewRepository returns an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		blocks: make(map[string]model.BlockRecord),
		txs:    make(map[string]model.TransactionRecord),
	}
}

// Ping always succeeds.
func (r *Repository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// InsertBlock stores a block record.
func (r *Repository) InsertBlock(ctx context.Context, block model.BlockRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks[block.Hash] = block
	return nil
}

// InsertTransactions stores transaction records.
func (r *Repository) InsertTransactions(ctx context.Context, txs []model.TransactionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range txs {
		r.txs[tx.TxHash] = clone(tx)
	}
	return nil
}

// FindTransaction returns a copy of the stored transaction or nil.
func (r *Repository) FindTransaction(ctx context.Context, txHash string) (*model.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	tx, ok := r.txs[txHash]
	if !ok {
		return nil, nil
	}
	found := clone(tx)
	return &found, nil
}

// Lookups returns how many times FindTransaction was called.
func (r *Repository) Lookups() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookups
}

// Block returns the stored block with hash.
func (r *Repository) Block(hash string) (model.BlockRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blocks[hash]
	return b, ok
}

// Transaction returns the stored transaction with hash without counting a lookup.
func (r *Repository) Transaction(hash string) (model.TransactionRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.txs[hash]
	if !ok {
		return model.TransactionRecord{}, false
	}
	return clone(tx), true
}

// Counts returns the number of stored blocks and transactions.
func (r *Repository) Counts() (blocks, txs int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blocks), len(r.txs)
}

func clone(tx model.TransactionRecord) model.TransactionRecord {
	tx.Inputs = append([]model.TransactionInput(nil), tx.Inputs...)
	tx.Outputs = append([]model.TransactionOutput(nil), tx.Outputs...)
	return tx
}
