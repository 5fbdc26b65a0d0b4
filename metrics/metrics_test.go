package metrics

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkarmaka98/anomalyctl/anomaly"
)

func TestSinkRecordsDetectorActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewSink(reg, "anomalyctl")

	d, err := anomaly.New(6, 2, anomaly.WithRecorder(sink.ForStream("share-a")))
	require.NoError(t, err)

	for _, v := range []float64{1, 2, 3, 100, 4, 5} {
		d.Detect(v)
	}
	d.Detect(math.NaN())

	assert.Equal(t, 6.0, testutil.ToFloat64(sink.Observations.WithLabelValues("share-a", "zscore")))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.Anomalies.WithLabelValues("share-a", "zscore")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.Rejected.WithLabelValues("share-a")))
	assert.Equal(t, 6.0, testutil.ToFloat64(sink.WindowLength.WithLabelValues("share-a")))
	assert.InDelta(t, d.Baseline().Mean, testutil.ToFloat64(sink.BaselineMean.WithLabelValues("share-a")), 1e-12)
	assert.InDelta(t, d.Baseline().StdDev, testutil.ToFloat64(sink.BaselineStdDev.WithLabelValues("share-a")), 1e-12)
}

func TestSinkCountsAnomaliesPerStream(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewSink(reg, "test")

	a, err := anomaly.New(8, 3, anomaly.WithStrategy(anomaly.StrategyRobust), anomaly.WithRecorder(sink.ForStream("a")))
	require.NoError(t, err)
	b, err := anomaly.New(8, 3, anomaly.WithRecorder(sink.ForStream("b")))
	require.NoError(t, err)

	for _, v := range []float64{10, 10.1, 9.9, 10.2, 9.8, 10, 10.1, 50} {
		a.Detect(v)
		b.Detect(v)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.Anomalies.WithLabelValues("a", "robust")))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.Anomalies.WithLabelValues("b", "zscore")))
	assert.InDelta(t, 399.5, testutil.ToFloat64(sink.Score.WithLabelValues("a", "robust")), 1e-6)

	count, err := testutil.GatherAndCount(reg, "test_observations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSinksOnSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSink(prometheus.NewRegistry(), "x")
		NewSink(prometheus.NewRegistry(), "x")
	})
	reg := prometheus.NewRegistry()
	NewSink(reg, "x")
	assert.Panics(t, func() { NewSink(reg, "x") })
}
