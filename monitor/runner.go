package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rkarmaka98/anomalyctl/anomaly"
	"github.com/rkarmaka98/anomalyctl/config"
	"github.com/rkarmaka98/anomalyctl/metrics"
)

// Runner polls every source on a fixed interval and feeds each stream into
// its own detector.
type Runner struct {
	interval time.Duration
	logger   *zap.Logger
	alerts   *AlertStore
	sink     *metrics.Sink
	now      func() time.Time
	streams  []*stream
}

type stream struct {
	src Source
	det *anomaly.SyncDetector
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) { r.interval = d }
}

func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithAlertStore records alerts in s instead of a store private to the runner.
func WithAlertStore(s *AlertStore) RunnerOption {
	return func(r *Runner) { r.alerts = s }
}

// WithSink records every observation and failed sample on sink.
func WithSink(s *metrics.Sink) RunnerOption {
	return func(r *Runner) { r.sink = s }
}

// NewRunner builds one detector per source from the detector settings.
// Source names must be unique.
func NewRunner(dc config.DetectorConfig, sources []Source, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		interval: time.Minute,
		logger:   zap.NewNop(),
		alerts:   NewAlertStore(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", r.interval)
	}

	strategy, err := anomaly.ParseStrategy(dc.Strategy)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		name := src.Name()
		if seen[name] {
			return nil, fmt.Errorf("duplicate stream %q", name)
		}
		seen[name] = true

		detOpts := []anomaly.Option{anomaly.WithStrategy(strategy)}
		if r.sink != nil {
			detOpts = append(detOpts, anomaly.WithRecorder(r.sink.ForStream(name)))
		}
		det, err := anomaly.NewSync(dc.Capacity, dc.Threshold, detOpts...)
		if err != nil {
			return nil, fmt.Errorf("stream %s: %w", name, err)
		}
		r.streams = append(r.streams, &stream{src: src, det: det})
	}
	return r, nil
}

// Alerts returns the store alerts are recorded in.
func (r *Runner) Alerts() *AlertStore { return r.alerts }

// PollOnce samples every source once and returns the alerts raised.
// Failed samples are logged and skipped.
func (r *Runner) PollOnce(ctx context.Context) []Alert {
	var raised []Alert
	for _, s := range r.streams {
		if ctx.Err() != nil {
			break
		}
		name := s.src.Name()
		sample, err := s.src.Sample(ctx)
		if err != nil {
			r.logger.Warn("error fetching sample", zap.String("stream", name), zap.Error(err))
			if r.sink != nil {
				r.sink.FetchErrors.WithLabelValues(name).Inc()
			}
			continue
		}

		res, err := s.det.Observe(sample)
		if errors.Is(err, anomaly.ErrNonFiniteObservation) {
			r.logger.Warn("dropping non-finite sample", zap.String("stream", name), zap.Float64("value", sample))
			continue
		}
		r.logger.Debug("observed",
			zap.String("stream", name),
			zap.Float64("value", sample),
			zap.Float64("score", res.Score),
		)
		if res.Anomaly {
			alert := r.alerts.Record(name, res, r.now())
			r.logger.Warn("anomaly detected",
				zap.String("stream", name),
				zap.String("alert_id", alert.ID),
				zap.Float64("value", res.Value),
				zap.Float64("score", res.Score),
				zap.Stringer("strategy", res.Strategy),
			)
			raised = append(raised, alert)
		}
	}
	return raised
}

// Run polls until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("monitor loop started",
		zap.Int("streams", len(r.streams)),
		zap.Duration("interval", r.interval),
	)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.PollOnce(ctx)
		select {
		case <-ctx.Done():
			r.logger.Info("monitor loop stopped", zap.Int("alerts", r.alerts.Len()))
			return nil
		case <-ticker.C:
		}
	}
}

// StreamStatus is a point-in-time view of one stream's detector.
type StreamStatus struct {
	Stream string
	anomaly.Snapshot
}

func (r *Runner) Status() []StreamStatus {
	out := make([]StreamStatus, len(r.streams))
	for i, s := range r.streams {
		out[i] = StreamStatus{Stream: s.src.Name(), Snapshot: s.det.Snapshot()}
	}
	return out
}
