package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const pipelineSubsystem = "utxo_pipeline"

var (
	pipelineBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: pipelineSubsystem,
		Name:      "blocks_total",
		Help:      "Count of blocks handled by the pipeline.",
	}, []string{"coin", "network", "status"})

	pipelineBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: pipelineSubsystem,
		Name:      "block_duration_seconds",
		Help:      "Duration of annotating and persisting one block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"coin", "network", "status"})

	pipelineBlockTransactions = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: pipelineSubsystem,
		Name:      "block_transactions",
		Help:      "Number of transactions per handled block.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
	}, []string{"coin", "network"})

	pipelineHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: pipelineSubsystem,
		Name:      "height",
		Help:      "Height of the last block persisted.",
	}, []string{"coin", "network"})

	pipelineWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: pipelineSubsystem,
		Name:      "writes_total",
		Help:      "Count of store write attempts.",
	}, []string{"operation", "coin", "network", "status"})

	pipelineWriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: pipelineSubsystem,
		Name:      "write_duration_seconds",
		Help:      "Duration of store write attempts.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "coin", "network", "status"})

	pipelineInputsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: pipelineSubsystem,
		Name:      "inputs_resolved_total",
		Help:      "Count of inputs annotated, by where the spent output was found.",
	}, []string{"coin", "network", "source"})
)

// Pipeline tracks metrics for the block ingestion pipeline.
type Pipeline struct {
	coin    string
	network string
}

// NewPipeline constructs a Pipeline collector.
func NewPipeline(coin model.Coin, network model.Network) *Pipeline {
	return &Pipeline{coin: orUnknown(string(coin)), network: orUnknown(string(network))}
}

// ObserveBlock records the outcome of a handled block.
func (m Pipeline) ObserveBlock(err error, height uint64, txs int, started time.Time) {
	s := status(err)
	pipelineBlocksTotal.WithLabelValues(m.coin, m.network, s).Inc()
	pipelineBlockDuration.WithLabelValues(m.coin, m.network, s).Observe(time.Since(started).Seconds())
	if err != nil {
		return
	}
	pipelineBlockTransactions.WithLabelValues(m.coin, m.network).Observe(float64(txs))
	pipelineHeight.WithLabelValues(m.coin, m.network).Set(float64(height))
}

// ObserveWrite records a single store write attempt.
func (m Pipeline) ObserveWrite(operation string, err error, started time.Time) {
	s := status(err)
	pipelineWritesTotal.WithLabelValues(operation, m.coin, m.network, s).Inc()
	pipelineWriteDuration.WithLabelValues(operation, m.coin, m.network, s).Observe(time.Since(started).Seconds())
}

// ObserveResolution adds the per-source input counts of one block.
func (m Pipeline) ObserveResolution(res chain.Resolution) {
	for source, n := range map[string]int{
		"coinbase":   res.Coinbase,
		"cache":      res.CacheHits,
		"store":      res.StoreHits,
		"unresolved": res.Unresolved,
	} {
		if n > 0 {
			pipelineInputsTotal.WithLabelValues(m.coin, m.network, source).Add(float64(n))
		}
	}
}
