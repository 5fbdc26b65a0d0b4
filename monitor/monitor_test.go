package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rkarmaka98/anomalyctl/anomaly"
	"github.com/rkarmaka98/anomalyctl/config"
	"github.com/rkarmaka98/anomalyctl/metrics"
)

type seriesSource struct {
	name   string
	values []float64
	err    error
	calls  int
	hook   func(call int)
}

func (s *seriesSource) Name() string { return s.name }

func (s *seriesSource) Sample(context.Context) (float64, error) {
	s.calls++
	if s.hook != nil {
		s.hook(s.calls)
	}
	if s.err != nil {
		return 0, s.err
	}
	v := s.values[(s.calls-1)%len(s.values)]
	return v, nil
}

func robustConfig() config.DetectorConfig {
	return config.DetectorConfig{Strategy: "robust", Capacity: 8, Threshold: 3}
}

func TestParseShareList(t *testing.T) {
	shares, err := ParseShareList([]string{"a:/subs/1/res", " b : /subs/2:with:colons "})
	require.NoError(t, err)
	assert.Equal(t, []ShareRef{
		{Name: "a", ResourceID: "/subs/1/res"},
		{Name: "b", ResourceID: "/subs/2:with:colons"},
	}, shares)

	_, err = ParseShareList([]string{"a:/ok", "broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	_, err = ParseShareList([]string{":/subs"})
	assert.Error(t, err)
}

func TestAlertStore(t *testing.T) {
	s := NewAlertStore()
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	first := s.Record("b", anomaly.Result{Value: 1, Score: 9, Strategy: anomaly.StrategyZScore}, at)
	s.Record("a", anomaly.Result{Value: 2, Score: 4, Strategy: anomaly.StrategyRobust}, at)
	latest := s.Record("b", anomaly.Result{Value: 3, Score: 5, Strategy: anomaly.StrategyZScore}, at)

	assert.NotEqual(t, first.ID, latest.ID)
	assert.Equal(t, 2, s.Len())

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Stream)
	assert.Equal(t, "b", list[1].Stream)
	assert.Equal(t, 3.0, list[1].Value)
	assert.Equal(t, "zscore anomaly: 3.00 (score 5.00)", list[1].Message)
}

func TestRunnerPollOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := metrics.NewSink(reg, "test")

	good := &seriesSource{name: "share-a", values: []float64{10, 10.1, 9.9, 10.2, 9.8, 10, 10.1, 50}}
	bad := &seriesSource{name: "share-b", err: errors.New("throttled")}

	store := NewAlertStore()
	r, err := NewRunner(robustConfig(), []Source{good, bad},
		WithLogger(zaptest.NewLogger(t)),
		WithSink(sink),
		WithAlertStore(store),
	)
	require.NoError(t, err)

	var raised []Alert
	for i := 0; i < 8; i++ {
		raised = append(raised, r.PollOnce(context.Background())...)
	}

	require.Len(t, raised, 1)
	assert.Equal(t, "share-a", raised[0].Stream)
	assert.Equal(t, 50.0, raised[0].Value)
	assert.Equal(t, anomaly.StrategyRobust, raised[0].Strategy)
	assert.Same(t, store, r.Alerts())
	assert.Equal(t, 1, store.Len())

	assert.Equal(t, 8.0, testutil.ToFloat64(sink.FetchErrors.WithLabelValues("share-b")))
	assert.Equal(t, 8.0, testutil.ToFloat64(sink.Observations.WithLabelValues("share-a", "robust")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.Anomalies.WithLabelValues("share-a", "robust")))

	status := r.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "share-a", status[0].Stream)
	assert.Equal(t, 8, status[0].Len)
	assert.Equal(t, 0, status[1].Len)
}

func TestRunnerKeepsStreamsIndependent(t *testing.T) {
	a := &seriesSource{name: "a", values: []float64{1, 1, 1, 1}}
	b := &seriesSource{name: "b", values: []float64{5, 7}}

	r, err := NewRunner(config.DetectorConfig{Strategy: "zscore", Capacity: 4, Threshold: 1}, []Source{a, b})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		r.PollOnce(context.Background())
	}
	status := r.Status()
	assert.Equal(t, []float64{1, 1, 1, 1}, status[0].Values)
	assert.Equal(t, []float64{5, 7, 5, 7}, status[1].Values)
}

func TestRunnerRejectsBadSetup(t *testing.T) {
	src := &seriesSource{name: "a", values: []float64{1}}

	_, err := NewRunner(config.DetectorConfig{Strategy: "zscore", Capacity: 0, Threshold: 1}, []Source{src})
	assert.ErrorIs(t, err, anomaly.ErrInvalidCapacity)

	_, err = NewRunner(config.DetectorConfig{Strategy: "lstm", Capacity: 3, Threshold: 1}, []Source{src})
	assert.ErrorIs(t, err, anomaly.ErrUnknownStrategy)

	_, err = NewRunner(robustConfig(), []Source{src, src})
	assert.Error(t, err)

	_, err = NewRunner(robustConfig(), []Source{src}, WithInterval(0))
	assert.Error(t, err)
}

func TestRunnerRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &seriesSource{name: "a", values: []float64{1, 2, 3}}
	src.hook = func(call int) {
		if call == 3 {
			cancel()
		}
	}

	r, err := NewRunner(robustConfig(), []Source{src}, WithInterval(time.Millisecond))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 3, src.calls)
}

type fakeLister struct {
	mu      sync.Mutex
	metrics []*armmonitor.Metric
	err     error
	opts    *armmonitor.MetricsClientListOptions
	uri     string
}

func (f *fakeLister) List(_ context.Context, uri string, opts *armmonitor.MetricsClientListOptions) (armmonitor.MetricsClientListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uri, f.opts = uri, opts
	var resp armmonitor.MetricsClientListResponse
	if f.err != nil {
		return resp, f.err
	}
	resp.Value = f.metrics
	return resp, nil
}

func TestMetricsClientLatest(t *testing.T) {
	t0 := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	lister := &fakeLister{metrics: []*armmonitor.Metric{{
		Timeseries: []*armmonitor.TimeSeriesElement{{
			Data: []*armmonitor.MetricValue{
				{TimeStamp: to.Ptr(t0.Add(-2 * time.Minute)), Average: to.Ptr(10.0), Maximum: to.Ptr(30.0)},
				{TimeStamp: to.Ptr(t0), Average: to.Ptr(12.0), Maximum: to.Ptr(40.0)},
				{TimeStamp: to.Ptr(t0.Add(-time.Minute)), Average: to.Ptr(11.0)},
				{TimeStamp: to.Ptr(t0.Add(time.Minute))},
			},
		}},
	}}}
	client := &MetricsClient{client: lister, now: func() time.Time { return t0 }}

	v, err := client.Latest(context.Background(), "/subs/1/res", "FileServerIOPS", "Average")
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)
	assert.Equal(t, "/subs/1/res", lister.uri)
	assert.Equal(t, "FileServerIOPS", *lister.opts.Metricnames)
	assert.Equal(t, "2026-10-18T11:55:00Z/2026-10-18T12:00:00Z", *lister.opts.Timespan)

	v, err = client.Latest(context.Background(), "/subs/1/res", "FileServerIOPS", "Maximum")
	require.NoError(t, err)
	assert.Equal(t, 40.0, v)

	_, err = client.Latest(context.Background(), "/subs/1/res", "FileServerIOPS", "Total")
	assert.ErrorIs(t, err, ErrNoDataPoints)

	lister.err = errors.New("forbidden")
	_, err = client.Latest(context.Background(), "/subs/1/res", "FileServerIOPS", "Average")
	assert.Error(t, err)
}

func TestMetricSourceUsesClient(t *testing.T) {
	lister := &fakeLister{metrics: []*armmonitor.Metric{{
		Timeseries: []*armmonitor.TimeSeriesElement{{
			Data: []*armmonitor.MetricValue{{TimeStamp: to.Ptr(time.Now()), Average: to.Ptr(7.0)}},
		}},
	}}}
	client := &MetricsClient{client: lister, now: time.Now}
	src := NewMetricSource(client, ShareRef{Name: "share-a", ResourceID: "/r"}, "Transactions", "Average")

	assert.Equal(t, "share-a", src.Name())
	v, err := src.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
	assert.Equal(t, "Transactions", *lister.opts.Metricnames)
}

type fakeUsage struct {
	bytes int64
	err   error
}

func (f fakeUsage) UsageBytes(context.Context) (int64, error) { return f.bytes, f.err }

func TestShareUsageSource(t *testing.T) {
	src := &ShareUsageSource{name: "usage/share-a", usage: fakeUsage{bytes: 1 << 30}}
	v, err := src.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(1<<30), v)

	src.usage = fakeUsage{err: ErrNoDataPoints}
	_, err = src.Sample(context.Background())
	assert.ErrorIs(t, err, ErrNoDataPoints)
}

func TestNewStorageAccountRequiresCredentials(t *testing.T) {
	_, err := NewStorageAccount("", "")
	assert.Error(t, err)
}

func TestStorageAccountShareNames(t *testing.T) {
	acc, err := NewStorageAccount("acct", "a2V5")
	require.NoError(t, err)

	err = acc.CreateShare(context.Background(), "logs", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid quota")

	src := acc.UsageSource("logs")
	assert.Equal(t, "usage/logs", src.Name())
}
