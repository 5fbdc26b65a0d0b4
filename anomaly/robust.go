package anomaly

import "math"

// RobustDetect reports whether |value - median| / MAD exceeds threshold.
// A window with zero MAD never flags.
func RobustDetect(values []float64, value, threshold float64) bool {
	rb := ComputeRobustBaseline(values)
	if rb.MAD == 0 {
		return false
	}
	return robustRatio(rb, value) > threshold
}

// RobustScore returns |value - median| / MAD, or 0 when MAD is zero.
func RobustScore(values []float64, value float64) float64 {
	return robustRatio(ComputeRobustBaseline(values), value)
}

func robustRatio(rb RobustBaseline, value float64) float64 {
	if rb.MAD == 0 || !finite(rb.MAD) || !finite(rb.Median) {
		return 0
	}
	return math.Abs(value-rb.Median) / rb.MAD
}

type robustEvaluator struct{}

func (robustEvaluator) detect(values []float64, _ Baseline, value, threshold float64) bool {
	return RobustDetect(values, value, threshold)
}

func (robustEvaluator) score(values []float64, _ Baseline, value float64) float64 {
	return RobustScore(values, value)
}

func (robustEvaluator) rescan(values []float64, b Baseline, threshold float64) []Result {
	rb := ComputeRobustBaseline(values)
	out := make([]Result, len(values))
	for i, v := range values {
		ratio := robustRatio(rb, v)
		out[i] = Result{
			Value:    v,
			Anomaly:  ratio > threshold,
			Score:    ratio,
			Strategy: StrategyRobust,
			Baseline: b,
		}
	}
	return out
}
