// Package bitcoin reads blocks from a Bitcoin node and converts them to model blocks.
package bitcoin

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-annotator/pkg/safe"
)

// ConvertBlock maps a wire block into a model block, evaluating every output script.
func ConvertBlock(msg *wire.MsgBlock, evaluator *ScriptEvaluator) (*model.Block, error) {
	header := msg.Header
	timestamp, err := safe.Uint32(header.Timestamp.Unix())
	if err != nil {
		return nil, fmt.Errorf("block %s timestamp: %w", header.BlockHash(), err)
	}
	size, err := safe.Uint32(msg.SerializeSize())
	if err != nil {
		return nil, fmt.Errorf("block %s size: %w", header.BlockHash(), err)
	}

	block := &model.Block{
		Hash:       header.BlockHash(),
		Version:    header.Version,
		PrevHash:   header.PrevBlock,
		MerkleRoot: header.MerkleRoot,
		Timestamp:  timestamp,
		Bits:       header.Bits,
		Nonce:      header.Nonce,
		Size:       size,
		Txs:        make([]model.Tx, 0, len(msg.Transactions)),
	}

	for _, tx := range msg.Transactions {
		converted, err := convertTx(tx, evaluator)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", block.Hash, err)
		}
		block.Txs = append(block.Txs, converted)
	}
	return block, nil
}

func convertTx(tx *wire.MsgTx, evaluator *ScriptEvaluator) (model.Tx, error) {
	converted := model.Tx{
		Hash:     tx.TxHash(),
		Version:  tx.Version,
		LockTime: tx.LockTime,
		Inputs:   make([]model.TxInput, 0, len(tx.TxIn)),
		Outputs:  make([]model.TxOutput, 0, len(tx.TxOut)),
	}

	for _, in := range tx.TxIn {
		converted.Inputs = append(converted.Inputs, model.TxInput{
			PrevHash:  in.PreviousOutPoint.Hash,
			PrevIndex: in.PreviousOutPoint.Index,
			ScriptSig: in.SignatureScript,
			Sequence:  in.Sequence,
		})
	}

	for idx, out := range tx.TxOut {
		value, err := safe.Uint64(out.Value)
		if err != nil {
			return model.Tx{}, fmt.Errorf("tx %s output %d value: %w", converted.Hash, idx, err)
		}
		converted.Outputs = append(converted.Outputs, model.TxOutput{
			Value:        value,
			ScriptPubKey: out.PkScript,
			Script:       evaluator.Evaluate(out.PkScript),
		})
	}
	return converted, nil
}
