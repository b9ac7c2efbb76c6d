package bitcoin

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-annotator/pkg/safe"
	"github.com/goodnatureofminers/blockinsight7000-annotator/pkg/workerpool"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// SourceOptions tunes read-ahead against the node.
type SourceOptions struct {
	// Prefetch is how many consecutive blocks one FetchBlock miss requests.
	Prefetch int
	Workers  int
	// RPS caps node requests per second; zero disables the limit.
	RPS int
}

// BlockSource reads blocks by height from a node. Blocks after the requested
// height are fetched concurrently and buffered; each is handed out once.
// FetchBlock must be called from a single goroutine.
type BlockSource struct {
	rpc       NodeClient
	evaluator *ScriptEvaluator
	limiter   ratelimit.Limiter
	prefetch  int
	workers   int
	logger    *zap.Logger

	tip    uint64
	hasTip bool
	buffer map[uint64]*model.Block
}

// NewBlockSource creates a BlockSource.
func NewBlockSource(rpc NodeClient, evaluator *ScriptEvaluator, opts SourceOptions, logger *zap.Logger) (*BlockSource, error) {
	if rpc == nil {
		return nil, errors.New("block source rpc client is required")
	}
	if evaluator == nil {
		return nil, errors.New("block source script evaluator is required")
	}
	if opts.Prefetch < 1 {
		opts.Prefetch = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	limiter := ratelimit.NewUnlimited()
	if opts.RPS > 0 {
		limiter = ratelimit.New(opts.RPS)
	}

	return &BlockSource{
		rpc:       rpc,
		evaluator: evaluator,
		limiter:   limiter,
		prefetch:  opts.Prefetch,
		workers:   opts.Workers,
		logger:    logger,
		buffer:    make(map[uint64]*model.Block),
	}, nil
}

// LatestHeight returns the node's best height. Read-ahead never passes it.
func (s *BlockSource) LatestHeight(_ context.Context) (uint64, error) {
	s.limiter.Take()
	count, err := s.rpc.GetBlockCount()
	if err != nil {
		return 0, fmt.Errorf("get block count: %w", err)
	}
	height, err := safe.Uint64(count)
	if err != nil {
		return 0, fmt.Errorf("block count overflow: %w", err)
	}
	s.tip, s.hasTip = height, true
	return height, nil
}

// FetchBlock returns the block at height.
func (s *BlockSource) FetchBlock(ctx context.Context, height uint64) (*model.Block, error) {
	if _, err := safe.Int64(height); err != nil {
		return nil, fmt.Errorf("block height exceeds rpc limit: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if block, ok := s.buffer[height]; ok {
		delete(s.buffer, height)
		return block, nil
	}
	s.dropBelow(height)

	fetched, err := s.fetchRange(ctx, height, s.rangeEnd(height))
	if err != nil {
		return nil, err
	}
	block := fetched[height]
	delete(fetched, height)
	for h, b := range fetched {
		s.buffer[h] = b
	}
	return block, nil
}

func (s *BlockSource) rangeEnd(from uint64) uint64 {
	if !s.hasTip {
		return from
	}
	end := from + uint64(s.prefetch) - 1
	if end < from || end > s.tip {
		end = s.tip
	}
	if end < from {
		return from
	}
	return end
}

// fetchRange loads [from, to]. Only a failure at from is an error; later heights
// that fail are left for a future call.
func (s *BlockSource) fetchRange(ctx context.Context, from, to uint64) (map[uint64]*model.Block, error) {
	heights := make([]uint64, 0, to-from+1)
	for h := from; h <= to; h++ {
		heights = append(heights, h)
		if h == to {
			break
		}
	}

	blocks := make(map[uint64]*model.Block, len(heights))
	for i, res := range workerpool.Map(ctx, s.workers, heights, s.fetch) {
		height := heights[i]
		if res.Err != nil {
			if height == from {
				return nil, res.Err
			}
			s.logger.Debug("prefetch failed", zap.Uint64("height", height), zap.Error(res.Err))
			continue
		}
		blocks[height] = res.Value
	}
	return blocks, nil
}

func (s *BlockSource) fetch(ctx context.Context, height uint64) (*model.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rpcHeight, err := safe.Int64(height)
	if err != nil {
		return nil, err
	}

	s.limiter.Take()
	hash, err := s.rpc.GetBlockHash(rpcHeight)
	if err != nil {
		return nil, fmt.Errorf("get block hash at height %d: %w", height, err)
	}

	s.limiter.Take()
	msg, err := s.rpc.GetBlock(hash)
	if err != nil {
		return nil, fmt.Errorf("get block %s: %w", hash, err)
	}

	block, err := ConvertBlock(msg, s.evaluator)
	if err != nil {
		return nil, fmt.Errorf("convert block at height %d: %w", height, err)
	}
	return block, nil
}

func (s *BlockSource) dropBelow(height uint64) {
	for h := range s.buffer {
		if h < height {
			delete(s.buffer, h)
		}
	}
}
