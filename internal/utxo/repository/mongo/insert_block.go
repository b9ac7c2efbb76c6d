package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
)

// InsertBlock stores a block header. A block already present is left untouched.
func (r *Repository) InsertBlock(ctx context.Context, block model.BlockRecord) (err error) {
	started := time.Now()
	defer func() {
		r.observe("insert_block", err, started)
	}()

	_, err = r.db.Collection(blocksCollection).InsertOne(ctx, newBlockDocument(block))
	if err != nil && !onlyDuplicates(err) {
		return fmt.Errorf("insert block %s: %w", block.Hash, err)
	}
	return nil
}
