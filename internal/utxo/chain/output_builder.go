package chain

import (
	"encoding/hex"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
	"go.uber.org/zap"
)

// OutputBuilder turns evaluated outputs into persisted output records.
type OutputBuilder struct {
	logger *zap.Logger
}

// NewOutputBuilder constructs an OutputBuilder.
func NewOutputBuilder(logger *zap.Logger) *OutputBuilder {
	return &OutputBuilder{logger: logger}
}

// Build converts the outputs of tx in position order and stages each of them in cache,
// so later transactions of the same block can spend them. It returns the number of
// outputs whose script did not yield an address.
func (b *OutputBuilder) Build(tx model.Tx, cache *OutputCache) ([]model.TransactionOutput, int) {
	txHash := tx.Hash.String()
	outputs := make([]model.TransactionOutput, 0, len(tx.Outputs))
	unrecognized := 0

	for idx, out := range tx.Outputs {
		index := uint32(idx)
		record := OutputRecordOf(out)
		if record.Address == "" {
			unrecognized++
			b.logger.Debug("unable to evaluate address for output",
				zap.String("txid", txHash),
				zap.Uint32("index", index),
				zap.String("pattern", out.Script.Pattern),
			)
		}

		outputs = append(outputs, model.TransactionOutput{
			TxHash:       txHash,
			IndexOut:     index,
			Value:        record.Value,
			ScriptPubKey: hex.EncodeToString(out.ScriptPubKey),
			Address:      record.Address,
		})
		cache.Put(model.OutputKey{TxHash: tx.Hash, Index: index}, record)
	}
	return outputs, unrecognized
}

// OutputRecordOf derives the (value, address) pair of an output.
func OutputRecordOf(out model.TxOutput) model.OutputRecord {
	return model.OutputRecord{
		Value:   out.Value,
		Address: out.Script.Address,
	}
}
