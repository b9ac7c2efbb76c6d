package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
)

const insertBlockQuery = `
INSERT INTO utxo_blocks (
	coin,
	network,
	hash,
	height,
	version,
	size,
	previous_hash,
	merkle_root,
	timestamp,
	bits,
	tx_count,
	nonce
) VALUES`

// InsertBlock stores a block header.
func (r *Repository) InsertBlock(ctx context.Context, block model.BlockRecord) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("insert_block", err, start)
	}()

	batch, err := r.conn.PrepareBatch(ctx, insertBlockQuery)
	if err != nil {
		return fmt.Errorf("prepare block batch: %w", err)
	}

	if err = batch.Append(
		string(r.coin),
		string(r.network),
		block.Hash,
		block.Height,
		block.Version,
		block.Size,
		block.PreviousHash,
		block.MerkleRoot,
		block.Timestamp,
		block.Bits,
		block.TxCount,
		block.Nonce,
	); err != nil {
		return fmt.Errorf("append block %s: %w", block.Hash, err)
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert block %s: %w", block.Hash, err)
	}
	return nil
}
