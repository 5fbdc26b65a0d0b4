// Package anomaly implements a streaming anomaly detector over a sliding
// window of scalar observations.
//
// Every observation is pushed into the window before the baseline used to
// judge it is recomputed, so the tested value is part of its own baseline.
// With n values in the window this bounds a streaming z-score by sqrt(n-1);
// use Rescan to judge every member of a full window against the same
// baseline.
//
// A Detector is not safe for concurrent use. Wrap it in a SyncDetector when
// more than one goroutine feeds it.
package anomaly

import (
	"fmt"
	"math"
)

// Result is the outcome of one detection step.
type Result struct {
	Value    float64  `json:"value" yaml:"value"`
	Anomaly  bool     `json:"anomaly" yaml:"anomaly"`
	Score    float64  `json:"score" yaml:"score"`
	Strategy Strategy `json:"strategy" yaml:"strategy"`
	Baseline Baseline `json:"baseline" yaml:"baseline"`
}

// Recorder receives the outcome of every Observe call. Implementations must
// not call back into the detector.
type Recorder interface {
	RecordResult(r Result, windowLen int)
	RecordRejected(value float64)
}

// Option configures a Detector.
type Option func(*Detector)

// WithStrategy selects the detection strategy. The default is StrategyZScore.
func WithStrategy(s Strategy) Option {
	return func(d *Detector) {
		d.strategy = s
	}
}

// WithRecorder attaches a sink that is told about every observation.
func WithRecorder(r Recorder) Option {
	return func(d *Detector) {
		d.recorder = r
	}
}

// Detector owns a sliding window and judges each new observation against
// the statistics of the window after the observation was added.
type Detector struct {
	window    *Window
	threshold float64
	strategy  Strategy
	eval      evaluator
	baseline  Baseline
	recorder  Recorder
}

// New builds an empty detector holding the last capacity observations.
func New(capacity int, threshold float64, opts ...Option) (*Detector, error) {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
		return nil, ErrInvalidThreshold
	}
	w, err := NewWindow(capacity)
	if err != nil {
		return nil, err
	}
	d := &Detector{
		window:    w,
		threshold: threshold,
		strategy:  StrategyZScore,
		baseline:  neutralBaseline(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.strategy < StrategyZScore || d.strategy > StrategyRobust {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(d.strategy))
	}
	d.eval = evaluatorFor(d.strategy)
	return d, nil
}

// Observe pushes value, recomputes the baseline and evaluates value with the
// configured strategy. Non-finite values are dropped: the window is left as
// is and ErrNonFiniteObservation is returned with a non-anomalous Result.
func (d *Detector) Observe(value float64) (Result, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		if d.recorder != nil {
			d.recorder.RecordRejected(value)
		}
		return Result{Value: value, Strategy: d.strategy, Baseline: d.baseline}, ErrNonFiniteObservation
	}

	d.window.Push(value)
	values := d.window.Values()
	d.baseline = ComputeBaseline(values)

	r := Result{
		Value:    value,
		Anomaly:  d.eval.detect(values, d.baseline, value, d.threshold),
		Score:    d.eval.score(values, d.baseline, value),
		Strategy: d.strategy,
		Baseline: d.baseline,
	}
	if d.recorder != nil {
		d.recorder.RecordResult(r, len(values))
	}
	return r, nil
}

// Detect is Observe reduced to its verdict. It never fails; rejected input
// reports false.
func (d *Detector) Detect(value float64) bool {
	r, _ := d.Observe(value)
	return r.Anomaly
}

// Score returns the score Observe(value) would report without recording
// value. Non-finite values score 0. It always counts value as a fresh
// arrival, so calling Score after Detect or Observe for the same value
// counts it twice; use the Result from Observe instead.
func (d *Detector) Score(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	values := d.window.withPushed(value)
	return d.eval.score(values, ComputeBaseline(values), value)
}

// Rescan judges every value currently in the window against the current
// baseline, oldest first.
func (d *Detector) Rescan() []Result {
	return d.eval.rescan(d.window.Values(), d.baseline, d.threshold)
}

func (d *Detector) Len() int           { return d.window.Len() }
func (d *Detector) Capacity() int      { return d.window.Capacity() }
func (d *Detector) Threshold() float64 { return d.threshold }
func (d *Detector) Strategy() Strategy { return d.strategy }
func (d *Detector) Values() []float64  { return d.window.Values() }
func (d *Detector) Baseline() Baseline { return d.baseline }

// RobustBaseline computes the median and MAD of the current window.
func (d *Detector) RobustBaseline() RobustBaseline {
	return ComputeRobustBaseline(d.window.Values())
}
