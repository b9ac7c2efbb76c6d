package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
	"go.uber.org/zap"
)

// CoinbaseAddressPolicy selects the address recorded for generation inputs.
type CoinbaseAddressPolicy string

const (
	// CoinbaseAddressEmpty records generation inputs with an empty address.
	CoinbaseAddressEmpty CoinbaseAddressPolicy = "empty"
	// CoinbaseAddressSentinel records the all-zero hash text as the address.
	CoinbaseAddressSentinel CoinbaseAddressPolicy = "sentinel"
)

// ParseCoinbaseAddressPolicy validates a policy name. An empty name selects CoinbaseAddressEmpty.
func ParseCoinbaseAddressPolicy(name string) (CoinbaseAddressPolicy, error) {
	switch CoinbaseAddressPolicy(strings.ToLower(name)) {
	case "", CoinbaseAddressEmpty:
		return CoinbaseAddressEmpty, nil
	case CoinbaseAddressSentinel:
		return CoinbaseAddressSentinel, nil
	default:
		return "", fmt.Errorf("unsupported coinbase address policy %q", name)
	}
}

// Address returns the address text recorded for generation inputs.
func (p CoinbaseAddressPolicy) Address() string {
	if p == CoinbaseAddressSentinel {
		return model.CoinbaseSentinel.String()
	}
	return ""
}

// Resolution counts where the inputs of a resolve call were answered from.
type Resolution struct {
	Coinbase   int
	CacheHits  int
	StoreHits  int
	Unresolved int
}

// Add accumulates other into r.
func (r *Resolution) Add(other Resolution) {
	r.Coinbase += other.Coinbase
	r.CacheHits += other.CacheHits
	r.StoreHits += other.StoreHits
	r.Unresolved += other.Unresolved
}

// Total returns the number of inputs counted.
func (r Resolution) Total() int {
	return r.Coinbase + r.CacheHits + r.StoreHits + r.Unresolved
}

// Resolver annotates inputs with the value and address of the outputs they spend.
// Outputs of the current block are taken from the block's OutputCache; everything
// else is read from the store. The resolver never writes.
type Resolver struct {
	lookup          TransactionLookup
	coinbaseAddress string
	logger          *zap.Logger
}

// NewResolver constructs a Resolver reading previous transactions from lookup.
func NewResolver(lookup TransactionLookup, policy CoinbaseAddressPolicy, logger *zap.Logger) *Resolver {
	return &Resolver{
		lookup:          lookup,
		coinbaseAddress: policy.Address(),
		logger:          logger,
	}
}

// Resolve returns the annotated inputs of tx in input order.
// A failing store query is returned as an error; references that cannot be found
// are logged and annotated with a zero value and an empty address.
func (r *Resolver) Resolve(ctx context.Context, tx model.Tx, cache *OutputCache) ([]model.TransactionInput, Resolution, error) {
	var stats Resolution
	txHash := tx.Hash.String()
	inputs := make([]model.TransactionInput, 0, len(tx.Inputs))

	for idx, in := range tx.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		record, err := r.resolveInput(ctx, txHash, in, cache, &stats)
		if err != nil {
			return nil, stats, err
		}

		inputs = append(inputs, model.TransactionInput{
			TxHash:       txHash,
			HashPrevOut:  in.PrevHash.String(),
			IndexPrevOut: in.PrevIndex,
			IndexIn:      uint32(idx),
			ScriptSig:    hex.EncodeToString(in.ScriptSig),
			Sequence:     in.Sequence,
			Value:        record.Value,
			Address:      record.Address,
		})
	}
	return inputs, stats, nil
}

func (r *Resolver) resolveInput(
	ctx context.Context,
	spender string,
	in model.TxInput,
	cache *OutputCache,
	stats *Resolution,
) (model.OutputRecord, error) {
	if in.IsCoinbase() {
		stats.Coinbase++
		return model.OutputRecord{Address: r.coinbaseAddress}, nil
	}

	if record, ok := cache.Get(model.OutputKey{TxHash: in.PrevHash, Index: in.PrevIndex}); ok {
		stats.CacheHits++
		return record, nil
	}

	prevHash := in.PrevHash.String()
	stored, err := r.lookup.FindTransaction(ctx, prevHash)
	if err != nil {
		return model.OutputRecord{}, fmt.Errorf("find tx %s spent by %s: %w", prevHash, spender, err)
	}
	if stored != nil {
		if record, ok := stored.Output(in.PrevIndex); ok {
			stats.StoreHits++
			return record, nil
		}
	}

	stats.Unresolved++
	r.logger.Warn("previous output not found",
		zap.String("txid", spender),
		zap.String("prev_txid", prevHash),
		zap.Uint32("prev_vout", in.PrevIndex),
		zap.Bool("prev_tx_known", stored != nil),
	)
	return model.OutputRecord{}, nil
}
