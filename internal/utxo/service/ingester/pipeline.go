package ingester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/clock"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned when blocks arrive before OnStart succeeded.
	ErrNotStarted = errors.New("pipeline not started")
	// ErrFinished is returned for any call after OnComplete.
	ErrFinished = errors.New("pipeline finished")
	// ErrAlreadyStarted is returned when OnStart is called twice.
	ErrAlreadyStarted = errors.New("pipeline already started")
)

type pipelineState int

const (
	stateIdle pipelineState = iota
	stateConnected
	stateStreaming
	stateFinished
)

func (s pipelineState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateConnected:
		return "connected"
	case stateStreaming:
		return "streaming"
	case stateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Options tunes a Pipeline.
type Options struct {
	CoinbaseAddress chain.CoinbaseAddressPolicy
	// WriteRetries is the number of extra attempts for a failed block write.
	// Retrying relies on the store ignoring records it already holds.
	WriteRetries int
	RetryBackoff time.Duration
}

// DefaultOptions returns the options used by the ingester binary.
func DefaultOptions() Options {
	return Options{
		CoinbaseAddress: chain.CoinbaseAddressEmpty,
		WriteRetries:    defaultWriteRetries,
		RetryBackoff:    defaultRetryBackoff,
	}
}

// Pipeline persists blocks with annotated inputs. It is driven through BlockHandler
// and processes one block at a time; it is not safe for concurrent use.
type Pipeline struct {
	store        Store
	builder      *chain.TransactionBuilder
	metrics      PipelineMetrics
	logger       *zap.Logger
	sleep        func(context.Context, time.Duration) error
	writeRetries int
	retryBackoff time.Duration

	state pipelineState
	stats Stats
}

var _ BlockHandler = (*Pipeline)(nil)

// NewPipeline builds a Pipeline writing to and resolving against store.
func NewPipeline(store Store, metrics PipelineMetrics, opts Options, logger *zap.Logger) (*Pipeline, error) {
	if store == nil {
		return nil, errors.New("pipeline store is required")
	}
	if metrics == nil {
		return nil, errors.New("pipeline metrics is required")
	}
	if opts.WriteRetries < 0 {
		return nil, fmt.Errorf("write retries must not be negative: %d", opts.WriteRetries)
	}
	if opts.CoinbaseAddress == "" {
		opts.CoinbaseAddress = chain.CoinbaseAddressEmpty
	}

	return &Pipeline{
		store:        store,
		builder:      chain.NewTransactionBuilder(store, opts.CoinbaseAddress, logger),
		metrics:      metrics,
		logger:       logger,
		sleep:        clock.SleepWithContext,
		writeRetries: opts.WriteRetries,
		retryBackoff: opts.RetryBackoff,
	}, nil
}

// OnStart checks that the store is reachable and records the starting height.
func (p *Pipeline) OnStart(ctx context.Context, coin model.Coin, height uint64) error {
	switch p.state {
	case stateFinished:
		return ErrFinished
	case stateConnected, stateStreaming:
		return ErrAlreadyStarted
	}

	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}

	p.logger = p.logger.With(zap.String("coin", string(coin)))
	p.stats = Stats{Coin: coin, StartHeight: height}
	p.state = stateConnected
	p.logger.Info("connected to store", zap.Uint64("start_height", height))
	return nil
}

// OnBlock resolves and persists all transactions of block.
func (p *Pipeline) OnBlock(ctx context.Context, block model.Block, height uint64) (err error) {
	switch p.state {
	case stateIdle:
		return ErrNotStarted
	case stateFinished:
		return ErrFinished
	}
	p.state = stateStreaming

	started := time.Now()
	defer func() {
		p.metrics.ObserveBlock(err, height, len(block.Txs), started)
	}()

	records, err := p.builder.BuildBlock(ctx, block, height)
	if err != nil {
		p.logger.Error("build block records failed", zap.Uint64("height", height), zap.Error(err))
		return fmt.Errorf("build block height %d: %w", height, err)
	}

	if err = p.write(ctx, records); err != nil {
		p.logger.Error("write block failed", zap.Uint64("height", height), zap.Error(err))
		return fmt.Errorf("write block height %d: %w", height, err)
	}

	p.stats.addBlock(records)
	p.metrics.ObserveResolution(records.Resolution)
	p.logger.Debug("block ingested",
		zap.Uint64("height", height),
		zap.String("hash", records.Block.Hash),
		zap.Int("txs", len(records.Transactions)),
		zap.Int("unresolved", records.Resolution.Unresolved),
	)
	return nil
}

// OnComplete records the final height and logs the run totals.
func (p *Pipeline) OnComplete(_ context.Context, height uint64) error {
	switch p.state {
	case stateIdle:
		return ErrNotStarted
	case stateFinished:
		return ErrFinished
	}

	p.stats.EndHeight = height
	p.state = stateFinished
	p.logger.Info("ingestion done", p.stats.fields()...)
	return nil
}

// Stats returns a snapshot of the run totals.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

func (p *Pipeline) write(ctx context.Context, records *chain.BlockRecords) error {
	var err error
	for attempt := 0; attempt <= p.writeRetries; attempt++ {
		if attempt > 0 {
			backoff := clock.LinearBackoff(p.retryBackoff, attempt)
			p.logger.Warn("retrying block write",
				zap.Uint64("height", records.Block.Height),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			if sleepErr := p.sleep(ctx, backoff); sleepErr != nil {
				return sleepErr
			}
		}
		if err = p.writeOnce(ctx, records); err == nil {
			return nil
		}
	}
	return err
}

func (p *Pipeline) writeOnce(ctx context.Context, records *chain.BlockRecords) (err error) {
	started := time.Now()
	err = p.store.InsertBlock(ctx, records.Block)
	p.metrics.ObserveWrite("insert_block", err, started)
	if err != nil {
		return fmt.Errorf("insert block %s: %w", records.Block.Hash, err)
	}

	started = time.Now()
	err = p.store.InsertTransactions(ctx, records.Transactions)
	p.metrics.ObserveWrite("insert_transactions", err, started)
	if err != nil {
		return fmt.Errorf("insert %d transactions of block %s: %w", len(records.Transactions), records.Block.Hash, err)
	}
	return nil
}
