// Package ingester drives blocks from a source into the persistent store.
package ingester

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// BlockHandler receives the ingestion lifecycle of a block source.
	BlockHandler interface {
		OnStart(ctx context.Context, coin model.Coin, height uint64) error
		OnBlock(ctx context.Context, block model.Block, height uint64) error
		OnComplete(ctx context.Context, height uint64) error
	}
	BlockSource interface {
		LatestHeight(ctx context.Context) (uint64, error)
		FetchBlock(ctx context.Context, height uint64) (*model.Block, error)
	}
	Store interface {
		Ping(ctx context.Context) error
		InsertBlock(ctx context.Context, block model.BlockRecord) error
		InsertTransactions(ctx context.Context, txs []model.TransactionRecord) error
		FindTransaction(ctx context.Context, txHash string) (*model.TransactionRecord, error)
	}
	PipelineMetrics interface {
		ObserveBlock(err error, height uint64, txs int, started time.Time)
		ObserveWrite(operation string, err error, started time.Time)
		ObserveResolution(res chain.Resolution)
	}
)
