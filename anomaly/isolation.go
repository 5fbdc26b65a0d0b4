package anomaly

import "math"

const (
	// maxPathLength caps the partition steps spent on one point. Duplicate
	// values can never be separated by a midpoint split and run to the cap.
	maxPathLength = 100

	eulerMascheroni = 0.5772156649
)

// PathLength counts the midpoint partitions needed to isolate point from
// others. Each step splits the remaining candidates at the midpoint of their
// min and max and keeps the side point falls on (values below the split go
// left, the rest go right). It stops when no candidates remain or after
// maxPathLength steps. others is not modified.
func PathLength(point float64, others []float64) int {
	return pathLength(point, append([]float64(nil), others...))
}

// pathLength works in place on remaining, which it reorders.
func pathLength(point float64, remaining []float64) int {
	steps := 0
	for len(remaining) > 0 && steps < maxPathLength {
		lo, hi := remaining[0], remaining[0]
		for _, v := range remaining[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		// Halving first keeps the midpoint finite near ±MaxFloat64.
		split := lo/2 + hi/2

		left := 0
		for i, v := range remaining {
			if v < split {
				remaining[left], remaining[i] = remaining[i], remaining[left]
				left++
			}
		}
		if point < split {
			remaining = remaining[:left]
		} else {
			remaining = remaining[left:]
		}
		steps++
	}
	return steps
}

// AveragePathLength is the isolation-forest normaliser
// c(n) = 2(ln(n-1) + γ) - 2(n-1)/n, and 0 for n <= 1.
func AveragePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	nf := float64(n)
	return 2*(math.Log(nf-1)+eulerMascheroni) - 2*(nf-1)/nf
}

// pathLengths returns the path length of every member of values, each
// isolated from all the other members.
func pathLengths(values []float64) []int {
	out := make([]int, len(values))
	scratch := make([]float64, 0, len(values))
	for i, p := range values {
		scratch = append(scratch[:0], values[:i]...)
		scratch = append(scratch, values[i+1:]...)
		out[i] = pathLength(p, scratch)
	}
	return out
}

// IsolationScore returns 2^(-avg/c(n)) where avg is the mean path length
// over the window. The result lies in (0, 1] for more than one value; a
// score near 1 means the window is easy to partition and is read as
// anomalous. Windows with fewer than two values score 0.
func IsolationScore(values []float64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}
	total := 0
	for _, l := range pathLengths(values) {
		total += l
	}
	avg := float64(total) / float64(n)
	return math.Pow(2, -avg/AveragePathLength(n))
}

// IsolationDetect reports whether IsolationScore(values) exceeds threshold.
// Scores never exceed 1, so thresholds tuned for z-scores will not fire.
func IsolationDetect(values []float64, threshold float64) bool {
	return IsolationScore(values) > threshold
}

type isolationEvaluator struct{}

func (isolationEvaluator) detect(values []float64, _ Baseline, _, threshold float64) bool {
	return IsolationDetect(values, threshold)
}

func (isolationEvaluator) score(values []float64, _ Baseline, _ float64) float64 {
	return IsolationScore(values)
}

func (isolationEvaluator) rescan(values []float64, b Baseline, threshold float64) []Result {
	out := make([]Result, len(values))
	c := AveragePathLength(len(values))
	for i, l := range pathLengths(values) {
		score := 0.0
		if c > 0 {
			score = math.Pow(2, -float64(l)/c)
		}
		out[i] = Result{
			Value:    values[i],
			Anomaly:  score > threshold,
			Score:    score,
			Strategy: StrategyIsolation,
			Baseline: b,
		}
	}
	return out
}
