package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FindTransaction loads the transaction with txHash. It returns nil when no such
// transaction was stored.
func (r *Repository) FindTransaction(ctx context.Context, txHash string) (_ *model.TransactionRecord, err error) {
	started := time.Now()
	defer func() {
		r.observe("find_transaction", err, started)
	}()

	var doc transactionDocument
	err = r.db.Collection(transactionsCollection).FindOne(ctx, bson.M{"txHash": txHash}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction %s: %w", txHash, err)
	}
	return doc.record(), nil
}
