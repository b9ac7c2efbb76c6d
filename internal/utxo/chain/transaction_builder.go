package chain

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
	"go.uber.org/zap"
)

// BlockRecords is the outcome of converting one block.
type BlockRecords struct {
	Block        model.BlockRecord
	Transactions []model.TransactionRecord
	Inputs       int
	Outputs      int
	Unrecognized int
	Resolution   Resolution
}

// TransactionBuilder assembles the persisted records of a block.
type TransactionBuilder struct {
	outputs  *OutputBuilder
	resolver *Resolver
}

// NewTransactionBuilder wires an output builder and a resolver reading from lookup.
func NewTransactionBuilder(lookup TransactionLookup, policy CoinbaseAddressPolicy, logger *zap.Logger) *TransactionBuilder {
	return &TransactionBuilder{
		outputs:  NewOutputBuilder(logger.Named("outputs")),
		resolver: NewResolver(lookup, policy, logger.Named("resolver")),
	}
}

// BuildBlock converts block into records. Transactions are visited in block order;
// each transaction's outputs are staged in a cache private to this call before its
// inputs are resolved, so any later transaction of the block can spend them.
func (b *TransactionBuilder) BuildBlock(ctx context.Context, block model.Block, height uint64) (*BlockRecords, error) {
	blockHash := block.Hash.String()
	cache := NewOutputCache(countOutputs(block))
	result := &BlockRecords{
		Block:        NewBlockRecord(block, height),
		Transactions: make([]model.TransactionRecord, 0, len(block.Txs)),
	}

	for _, tx := range block.Txs {
		outputs, unrecognized := b.outputs.Build(tx, cache)
		inputs, resolution, err := b.resolver.Resolve(ctx, tx, cache)
		if err != nil {
			return nil, fmt.Errorf("resolve inputs of tx %s in block %s: %w", tx.Hash, blockHash, err)
		}

		result.Transactions = append(result.Transactions, model.TransactionRecord{
			TxHash:    tx.Hash.String(),
			BlockHash: blockHash,
			Version:   tx.Version,
			LockTime:  tx.LockTime,
			Inputs:    inputs,
			Outputs:   outputs,
		})
		result.Inputs += len(inputs)
		result.Outputs += len(outputs)
		result.Unrecognized += unrecognized
		result.Resolution.Add(resolution)
	}
	return result, nil
}

// NewBlockRecord maps a block header to its persisted shape.
func NewBlockRecord(block model.Block, height uint64) model.BlockRecord {
	return model.BlockRecord{
		Hash:         block.Hash.String(),
		Height:       height,
		Version:      block.Version,
		Size:         block.Size,
		PreviousHash: block.PrevHash.String(),
		MerkleRoot:   block.MerkleRoot.String(),
		Timestamp:    block.Timestamp,
		Bits:         block.Bits,
		TxCount:      uint32(len(block.Txs)),
		Nonce:        block.Nonce,
	}
}

func countOutputs(block model.Block) int {
	n := 0
	for _, tx := range block.Txs {
		n += len(tx.Outputs)
	}
	return n
}
