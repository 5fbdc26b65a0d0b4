package anomaly

import "math"

// ZScoreDetect reports whether |value - mean| / std_dev exceeds threshold.
// A zero std_dev never flags, nor does a baseline that overflowed.
func ZScoreDetect(b Baseline, value, threshold float64) bool {
	if degenerate(b) {
		return false
	}
	z := (value - b.Mean) / b.StdDev
	return math.Abs(z) > threshold
}

// ZScore is the magnitude ZScoreDetect compares against the threshold,
// or 0 when the baseline has no spread.
func ZScore(b Baseline, value float64) float64 {
	if degenerate(b) {
		return 0
	}
	return math.Abs(value-b.Mean) / b.StdDev
}

// degenerate reports a baseline that cannot judge anything: no spread, or a
// mean or spread that left the float64 range.
func degenerate(b Baseline) bool {
	return b.StdDev == 0 || !finite(b.Mean) || !finite(b.StdDev)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ZScoreFlags evaluates every value against the statistics of the whole
// slice, one verdict per input.
func ZScoreFlags(values []float64, threshold float64) []bool {
	b := ComputeBaseline(values)
	flags := make([]bool, len(values))
	for i, v := range values {
		flags[i] = ZScoreDetect(b, v, threshold)
	}
	return flags
}

type zScoreEvaluator struct{}

func (zScoreEvaluator) detect(_ []float64, b Baseline, value, threshold float64) bool {
	return ZScoreDetect(b, value, threshold)
}

func (zScoreEvaluator) score(_ []float64, b Baseline, value float64) float64 {
	return ZScore(b, value)
}

func (zScoreEvaluator) rescan(values []float64, b Baseline, threshold float64) []Result {
	out := make([]Result, len(values))
	for i, v := range values {
		out[i] = Result{
			Value:    v,
			Anomaly:  ZScoreDetect(b, v, threshold),
			Score:    ZScore(b, v),
			Strategy: StrategyZScore,
			Baseline: b,
		}
	}
	return out
}
