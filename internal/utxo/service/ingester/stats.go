package ingester

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
	"go.uber.org/zap"
)

// Stats are the running totals of one ingestion run.
type Stats struct {
	Coin         model.Coin
	StartHeight  uint64
	EndHeight    uint64
	Blocks       uint64
	Transactions uint64
	Inputs       uint64
	Outputs      uint64
	// OutputValue is the sum of all output values in satoshis.
	OutputValue  uint64
	Unrecognized uint64
	Coinbase     uint64
	CacheHits    uint64
	StoreHits    uint64
	Unresolved   uint64
}

func (s *Stats) addBlock(records *chain.BlockRecords) {
	s.Blocks++
	s.Transactions += uint64(records.Block.TxCount)
	s.Inputs += uint64(records.Inputs)
	s.Outputs += uint64(records.Outputs)
	for _, tx := range records.Transactions {
		for _, out := range tx.Outputs {
			s.OutputValue += out.Value
		}
	}
	s.Unrecognized += uint64(records.Unrecognized)
	s.Coinbase += uint64(records.Resolution.Coinbase)
	s.CacheHits += uint64(records.Resolution.CacheHits)
	s.StoreHits += uint64(records.Resolution.StoreHits)
	s.Unresolved += uint64(records.Resolution.Unresolved)
}

func (s Stats) fields() []zap.Field {
	return []zap.Field{
		zap.String("coin", string(s.Coin)),
		zap.Uint64("start_height", s.StartHeight),
		zap.Uint64("end_height", s.EndHeight),
		zap.Uint64("blocks", s.Blocks),
		zap.Uint64("transactions", s.Transactions),
		zap.Uint64("inputs", s.Inputs),
		zap.Uint64("outputs", s.Outputs),
		zap.Stringer("output_value", btcutil.Amount(int64(s.OutputValue))),
		zap.Uint64("unrecognized_outputs", s.Unrecognized),
		zap.Uint64("coinbase_inputs", s.Coinbase),
		zap.Uint64("cache_hits", s.CacheHits),
		zap.Uint64("store_hits", s.StoreHits),
		zap.Uint64("unresolved_inputs", s.Unresolved),
	}
}
