package anomaly

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Baseline is a snapshot of population statistics over a window.
type Baseline struct {
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

// RobustBaseline holds the median and median absolute deviation of a window.
type RobustBaseline struct {
	Median float64 `json:"median" yaml:"median"`
	MAD    float64 `json:"mad" yaml:"mad"`
}

// neutralBaseline is what an empty window reports. No strategy flags
// anything against it since StdDev is zero.
func neutralBaseline() Baseline {
	return Baseline{Min: math.Inf(1), Max: math.Inf(-1)}
}

// ComputeBaseline recomputes mean, population standard deviation (divisor N),
// min and max from scratch.
func ComputeBaseline(values []float64) Baseline {
	if len(values) == 0 {
		return neutralBaseline()
	}
	// stats only errors on empty input, which is handled above.
	mean, _ := stats.Mean(values)
	std, _ := stats.StandardDeviationPopulation(values)
	lo, _ := stats.Min(values)
	hi, _ := stats.Max(values)
	return Baseline{
		Count:  len(values),
		Mean:   mean,
		StdDev: std,
		Min:    lo,
		Max:    hi,
	}
}

// Median returns the middle of the sorted values, averaging the two middle
// elements for even lengths. An empty slice yields 0.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, _ := stats.Median(values)
	return m
}

// MedianAbsoluteDeviation returns median(|x - median(values)|).
func MedianAbsoluteDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mad, _ := stats.MedianAbsoluteDeviationPopulation(values)
	return mad
}

func ComputeRobustBaseline(values []float64) RobustBaseline {
	return RobustBaseline{
		Median: Median(values),
		MAD:    MedianAbsoluteDeviation(values),
	}
}
