package metrics_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/erc20-sender/internal/metrics"
)

func gather(t *testing.T, m *metrics.TransferMetrics) map[string]*dto.MetricFamily {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily, len(families))
	for _, family := range families {
		out[family.GetName()] = family
	}
	return out
}

func TestTransferMetrics(t *testing.T) {
	m := metrics.NewTransferMetrics()

	m.Finished("submitted")
	m.Finished("submitted")
	m.Finished("signed")
	m.Failed("query")
	m.ObserveStage("sign", time.Now().Add(-time.Millisecond))
	m.ChainState(42, 1e9)

	families := gather(t, m)

	transfers := families["erc20_sender_transfers_total"]
	require.NotNil(t, transfers)
	counts := map[string]float64{}
	for _, metric := range transfers.GetMetric() {
		counts[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"submitted": 2, "signed": 1}, counts)

	failures := families["erc20_sender_transfer_failures_total"]
	require.NotNil(t, failures)
	require.Len(t, failures.GetMetric(), 1)
	assert.Equal(t, "query", failures.GetMetric()[0].GetLabel()[0].GetValue())

	duration := families["erc20_sender_stage_duration_seconds"]
	require.NotNil(t, duration)
	assert.Equal(t, uint64(1), duration.GetMetric()[0].GetHistogram().GetSampleCount())

	assert.Equal(t, float64(42), families["erc20_sender_last_nonce"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 1e9, families["erc20_sender_last_gas_price_wei"].GetMetric()[0].GetGauge().GetValue())
}

func TestWriteTextfile(t *testing.T) {
	m := metrics.NewTransferMetrics()
	m.Finished("confirmed")

	path := filepath.Join(t.TempDir(), "erc20_sender.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `erc20_sender_transfers_total{state="confirmed"} 1`)

	assert.Error(t, m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom")))
}
