package ingester

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
	"go.uber.org/zap"
)

// ReplayRange bounds the heights fed by Replay. To == nil means up to the source tip.
type ReplayRange struct {
	From uint64
	To   *uint64
}

// Replay feeds heights from the range out of source into handler, strictly in order,
// wrapping them in the OnStart/OnComplete lifecycle. The first error stops the run
// and OnComplete is not called.
func Replay(ctx context.Context, source BlockSource, handler BlockHandler, coin model.Coin, r ReplayRange, logger *zap.Logger) error {
	to, err := resolveEnd(ctx, source, r)
	if err != nil {
		return err
	}
	if to < r.From {
		return fmt.Errorf("end height %d below start height %d", to, r.From)
	}

	if err := handler.OnStart(ctx, coin, r.From); err != nil {
		return fmt.Errorf("start at height %d: %w", r.From, err)
	}
	logger.Info("replaying blocks", zap.Uint64("from", r.From), zap.Uint64("to", to))

	for height := r.From; height <= to; height++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		block, err := source.FetchBlock(ctx, height)
		if err != nil {
			return fmt.Errorf("fetch block height %d: %w", height, err)
		}
		if err := handler.OnBlock(ctx, *block, height); err != nil {
			return err
		}
		if height == to {
			break
		}
	}

	return handler.OnComplete(ctx, to)
}

func resolveEnd(ctx context.Context, source BlockSource, r ReplayRange) (uint64, error) {
	if r.To != nil {
		return *r.To, nil
	}
	latest, err := source.LatestHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("latest height: %w", err)
	}
	return latest, nil
}
