package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
)

const (
	insertTransactionInputsQuery = `
INSERT INTO utxo_transaction_inputs (
	coin,
	network,
	txid,
	input_index,
	prev_txid,
	prev_vout,
	script_sig_hex,
	sequence,
	value,
	address
) VALUES`

	insertTransactionOutputsQuery = `
INSERT INTO utxo_transaction_outputs (
	coin,
	network,
	txid,
	output_index,
	value,
	script_pubkey_hex,
	address
) VALUES`

	insertTransactionsQuery = `
INSERT INTO utxo_transactions (
	coin,
	network,
	txid,
	block_hash,
	version,
	lock_time,
	input_count,
	output_count
) VALUES`
)

// InsertTransactions writes inputs, outputs and then transaction rows. A
// transaction row is only visible once its inputs and outputs were sent.
func (r *Repository) InsertTransactions(ctx context.Context, txs []model.TransactionRecord) (err error) {
	if len(txs) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		r.metrics.Observe("insert_transactions", err, start)
	}()

	if err = r.insertInputs(ctx, txs); err != nil {
		return err
	}
	if err = r.insertOutputs(ctx, txs); err != nil {
		return err
	}
	return r.insertHeaders(ctx, txs)
}

func (r *Repository) insertInputs(ctx context.Context, txs []model.TransactionRecord) error {
	batch, err := r.conn.PrepareBatch(ctx, insertTransactionInputsQuery)
	if err != nil {
		return fmt.Errorf("prepare transaction inputs batch: %w", err)
	}

	for _, tx := range txs {
		for _, in := range tx.Inputs {
			if err := batch.Append(
				string(r.coin),
				string(r.network),
				in.TxHash,
				in.IndexIn,
				in.HashPrevOut,
				in.IndexPrevOut,
				in.ScriptSig,
				in.Sequence,
				in.Value,
				in.Address,
			); err != nil {
				return fmt.Errorf("append input %s:%d: %w", in.TxHash, in.IndexIn, err)
			}
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("insert transaction inputs: %w", err)
	}
	return nil
}

func (r *Repository) insertOutputs(ctx context.Context, txs []model.TransactionRecord) error {
	batch, err := r.conn.PrepareBatch(ctx, insertTransactionOutputsQuery)
	if err != nil {
		return fmt.Errorf("prepare transaction outputs batch: %w", err)
	}

	for _, tx := range txs {
		for _, out := range tx.Outputs {
			if err := batch.Append(
				string(r.coin),
				string(r.network),
				out.TxHash,
				out.IndexOut,
				out.Value,
				out.ScriptPubKey,
				out.Address,
			); err != nil {
				return fmt.Errorf("append output %s:%d: %w", out.TxHash, out.IndexOut, err)
			}
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("insert transaction outputs: %w", err)
	}
	return nil
}

func (r *Repository) insertHeaders(ctx context.Context, txs []model.TransactionRecord) error {
	batch, err := r.conn.PrepareBatch(ctx, insertTransactionsQuery)
	if err != nil {
		return fmt.Errorf("prepare transactions batch: %w", err)
	}

	for _, tx := range txs {
		if err := batch.Append(
			string(r.coin),
			string(r.network),
			tx.TxHash,
			tx.BlockHash,
			tx.Version,
			tx.LockTime,
			tx.InputCount(),
			tx.OutputCount(),
		); err != nil {
			return fmt.Errorf("append transaction %s: %w", tx.TxHash, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}
	return nil
}
