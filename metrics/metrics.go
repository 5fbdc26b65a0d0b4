// Package metrics exports detector activity as Prometheus collectors
// registered on a caller supplied registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rkarmaka98/anomalyctl/anomaly"
)

// Sink owns the collectors for every monitored stream.
type Sink struct {
	Observations   *prometheus.CounterVec
	Anomalies      *prometheus.CounterVec
	Rejected       *prometheus.CounterVec
	Score          *prometheus.GaugeVec
	WindowLength   *prometheus.GaugeVec
	BaselineMean   *prometheus.GaugeVec
	BaselineStdDev *prometheus.GaugeVec
	FetchErrors    *prometheus.CounterVec
}

// NewSink registers the collectors on reg under namespace.
// It panics if they are already registered there, like promauto does.
func NewSink(reg prometheus.Registerer, namespace string) *Sink {
	f := promauto.With(reg)
	return &Sink{
		Observations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "observations_total",
				Help:      "Total number of observations evaluated",
			},
			[]string{"stream", "strategy"},
		),
		Anomalies: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "anomalies_total",
				Help:      "Total number of observations flagged as anomalous",
			},
			[]string{"stream", "strategy"},
		),
		Rejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejected_total",
				Help:      "Total number of non-finite observations dropped",
			},
			[]string{"stream"},
		),
		Score: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "score",
				Help:      "Anomaly score of the latest observation",
			},
			[]string{"stream", "strategy"},
		),
		WindowLength: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "window_length",
				Help:      "Number of observations currently held in the window",
			},
			[]string{"stream"},
		),
		BaselineMean: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "baseline_mean",
				Help:      "Mean of the current window",
			},
			[]string{"stream"},
		),
		BaselineStdDev: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "baseline_std_dev",
				Help:      "Population standard deviation of the current window",
			},
			[]string{"stream"},
		),
		FetchErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_errors_total",
				Help:      "Total number of failed source samples",
			},
			[]string{"stream"},
		),
	}
}

// ForStream returns a recorder that labels everything with stream.
func (s *Sink) ForStream(stream string) anomaly.Recorder {
	return &streamRecorder{sink: s, stream: stream}
}

type streamRecorder struct {
	sink   *Sink
	stream string
}

func (r *streamRecorder) RecordResult(res anomaly.Result, windowLen int) {
	strategy := res.Strategy.String()
	r.sink.Observations.WithLabelValues(r.stream, strategy).Inc()
	if res.Anomaly {
		r.sink.Anomalies.WithLabelValues(r.stream, strategy).Inc()
	}
	r.sink.Score.WithLabelValues(r.stream, strategy).Set(res.Score)
	r.sink.WindowLength.WithLabelValues(r.stream).Set(float64(windowLen))
	r.sink.BaselineMean.WithLabelValues(r.stream).Set(res.Baseline.Mean)
	r.sink.BaselineStdDev.WithLabelValues(r.stream).Set(res.Baseline.StdDev)
}

func (r *streamRecorder) RecordRejected(float64) {
	r.sink.Rejected.WithLabelValues(r.stream).Inc()
}
