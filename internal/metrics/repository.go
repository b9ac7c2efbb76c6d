package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	repositoryOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "repository",
		Name:      "operations_total",
		Help:      "Count of store operations.",
	}, []string{"backend", "operation", "coin", "network", "status"})

	repositoryOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "repository",
		Name:      "operation_duration_seconds",
		Help:      "Duration of store operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "operation", "coin", "network", "status"})
)

// Repository tracks metrics for one store backend.
type Repository struct {
	backend string
	coin    string
	network string
}

// NewRepository constructs a Repository collector; backend names the store
// implementation, e.g. "mongo" or "clickhouse".
func NewRepository(backend string, coin model.Coin, network model.Network) *Repository {
	return &Repository{
		backend: orUnknown(backend),
		coin:    orUnknown(string(coin)),
		network: orUnknown(string(network)),
	}
}

// Observe records a single store operation outcome and duration.
func (m Repository) Observe(operation string, err error, started time.Time) {
	s := status(err)
	repositoryOperationsTotal.WithLabelValues(m.backend, operation, m.coin, m.network, s).Inc()
	repositoryOperationDuration.WithLabelValues(m.backend, operation, m.coin, m.network, s).
		Observe(time.Since(started).Seconds())
}
