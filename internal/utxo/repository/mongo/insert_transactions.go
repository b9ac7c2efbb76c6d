package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertTransactions stores txs in one unordered bulk write. Documents rejected as
// duplicates are already stored; any other rejection fails the call while the
// remaining documents are still written.
func (r *Repository) InsertTransactions(ctx context.Context, txs []model.TransactionRecord) (err error) {
	if len(txs) == 0 {
		return nil
	}

	started := time.Now()
	defer func() {
		r.observe("insert_transactions", err, started)
	}()

	docs := make([]interface{}, 0, len(txs))
	for _, tx := range txs {
		docs = append(docs, newTransactionDocument(tx))
	}

	_, err = r.db.Collection(transactionsCollection).InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !onlyDuplicates(err) {
		return fmt.Errorf("insert %d transactions: %w", len(txs), err)
	}
	return nil
}
