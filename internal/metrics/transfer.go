package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "erc20_sender"

// TransferMetrics records transfer pipeline outcomes on its own registry.
type TransferMetrics struct {
	registry *prometheus.Registry

	transfersTotal *prometheus.CounterVec
	failuresTotal  *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	lastGasPrice   prometheus.Gauge
	lastNonce      prometheus.Gauge
}

func NewTransferMetrics() *TransferMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &TransferMetrics{
		registry: registry,
		transfersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Transfers by the last state they reached",
		}, []string{"state"}),
		failuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_failures_total",
			Help:      "Failed transfers by the stage that failed",
		}, []string{"stage"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each transfer stage",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		lastGasPrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_gas_price_wei",
			Help:      "Gas price used by the most recent transfer",
		}),
		lastNonce: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_nonce",
			Help:      "Nonce used by the most recent transfer",
		}),
	}
}

func (m *TransferMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Finished counts a transfer that ended in state.
func (m *TransferMetrics) Finished(state string) {
	m.transfersTotal.WithLabelValues(state).Inc()
}

func (m *TransferMetrics) Failed(stage string) {
	m.failuresTotal.WithLabelValues(stage).Inc()
}

func (m *TransferMetrics) ObserveStage(stage string, started time.Time) {
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

func (m *TransferMetrics) ChainState(nonce uint64, gasPriceWei float64) {
	m.lastNonce.Set(float64(nonce))
	m.lastGasPrice.Set(gasPriceWei)
}

// WriteTextfile writes all metrics in the text exposition format for the
// node exporter textfile collector.
func (m *TransferMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrap(err, "failed to write metrics textfile")
	}

	return nil
}
