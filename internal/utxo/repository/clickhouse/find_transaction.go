package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
)

const (
	selectTransactionQuery = `
SELECT
	block_hash,
	version,
	lock_time
FROM utxo_transactions FINAL
WHERE coin = ? AND network = ? AND txid = ?
LIMIT 1`

	selectTransactionInputsQuery = `
SELECT
	input_index,
	prev_txid,
	prev_vout,
	script_sig_hex,
	sequence,
	value,
	address
FROM utxo_transaction_inputs FINAL
WHERE coin = ? AND network = ? AND txid = ?
ORDER BY input_index ASC`

	selectTransactionOutputsQuery = `
SELECT
	output_index,
	value,
	script_pubkey_hex,
	address
FROM utxo_transaction_outputs FINAL
WHERE coin = ? AND network = ? AND txid = ?
ORDER BY output_index ASC`
)

// FindTransaction loads a transaction with its inputs and outputs, or returns nil
// when txHash has no transaction row.
func (r *Repository) FindTransaction(ctx context.Context, txHash string) (_ *model.TransactionRecord, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("find_transaction", err, start)
	}()

	tx, err := r.selectTransaction(ctx, txHash)
	if err != nil || tx == nil {
		return nil, err
	}
	if tx.Inputs, err = r.selectInputs(ctx, txHash); err != nil {
		return nil, err
	}
	if tx.Outputs, err = r.selectOutputs(ctx, txHash); err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *Repository) selectTransaction(ctx context.Context, txHash string) (_ *model.TransactionRecord, err error) {
	rows, err := r.conn.Query(ctx, selectTransactionQuery, string(r.coin), string(r.network), txHash)
	if err != nil {
		return nil, fmt.Errorf("query transaction %s: %w", txHash, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", cerr)
		}
	}()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate transaction %s: %w", txHash, err)
		}
		return nil, nil
	}

	tx := &model.TransactionRecord{TxHash: txHash}
	if err = rows.Scan(&tx.BlockHash, &tx.Version, &tx.LockTime); err != nil {
		return nil, fmt.Errorf("scan transaction %s: %w", txHash, err)
	}
	return tx, nil
}

func (r *Repository) selectInputs(ctx context.Context, txHash string) (_ []model.TransactionInput, err error) {
	rows, err := r.conn.Query(ctx, selectTransactionInputsQuery, string(r.coin), string(r.network), txHash)
	if err != nil {
		return nil, fmt.Errorf("query inputs of %s: %w", txHash, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", cerr)
		}
	}()

	var inputs []model.TransactionInput
	for rows.Next() {
		in := model.TransactionInput{TxHash: txHash}
		if err = rows.Scan(
			&in.IndexIn,
			&in.HashPrevOut,
			&in.IndexPrevOut,
			&in.ScriptSig,
			&in.Sequence,
			&in.Value,
			&in.Address,
		); err != nil {
			return nil, fmt.Errorf("scan input of %s: %w", txHash, err)
		}
		inputs = append(inputs, in)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inputs of %s: %w", txHash, err)
	}
	return inputs, nil
}

func (r *Repository) selectOutputs(ctx context.Context, txHash string) (_ []model.TransactionOutput, err error) {
	rows, err := r.conn.Query(ctx, selectTransactionOutputsQuery, string(r.coin), string(r.network), txHash)
	if err != nil {
		return nil, fmt.Errorf("query outputs of %s: %w", txHash, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", cerr)
		}
	}()

	var outputs []model.TransactionOutput
	for rows.Next() {
		out := model.TransactionOutput{TxHash: txHash}
		if err = rows.Scan(
			&out.IndexOut,
			&out.Value,
			&out.ScriptPubKey,
			&out.Address,
		); err != nil {
			return nil, fmt.Errorf("scan output of %s: %w", txHash, err)
		}
		outputs = append(outputs, out)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outputs of %s: %w", txHash, err)
	}
	return outputs, nil
}
