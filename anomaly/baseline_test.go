package anomaly

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeBaseline(t *testing.T) {
	b := ComputeBaseline([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	assert.Equal(t, 8, b.Count)
	assert.InDelta(t, 5.0, b.Mean, 1e-12)
	// population standard deviation, divisor N
	assert.InDelta(t, 2.0, b.StdDev, 1e-12)
	assert.Equal(t, 2.0, b.Min)
	assert.Equal(t, 9.0, b.Max)
}

func TestComputeBaselineEmptyWindowIsNeutral(t *testing.T) {
	b := ComputeBaseline(nil)

	assert.Equal(t, 0, b.Count)
	assert.Equal(t, 0.0, b.Mean)
	assert.Equal(t, 0.0, b.StdDev)
	assert.True(t, math.IsInf(b.Min, 1))
	assert.True(t, math.IsInf(b.Max, -1))
}

func TestMedianAndMAD(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		median float64
		mad    float64
	}{
		{"empty", nil, 0, 0},
		{"single", []float64{3}, 3, 0},
		{"odd", []float64{5, 1, 3}, 3, 2},
		{"even", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 4.5, 0.5},
		{"constant", []float64{7, 7, 7, 7}, 7, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.median, Median(tt.values), 1e-12)
			assert.InDelta(t, tt.mad, MedianAbsoluteDeviation(tt.values), 1e-12)
		})
	}
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Median(values)
	MedianAbsoluteDeviation(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestBaselineBoundsHoldForEveryWindow(t *testing.T) {
	windows := [][]float64{
		{1},
		{1, 2, 3, 100, 4, 5},
		{-4, -4, 8, 0.5},
		{10, 10.1, 9.9, 10.2, 9.8, 10, 10.1, 50},
		{1e9, -1e9, 3},
	}
	for _, w := range windows {
		b := ComputeBaseline(w)
		med := Median(w)

		assert.GreaterOrEqual(t, b.StdDev, 0.0)
		assert.LessOrEqual(t, b.Min, med)
		assert.LessOrEqual(t, med, b.Max)
		for _, v := range w {
			assert.LessOrEqual(t, b.Min, v)
			assert.GreaterOrEqual(t, b.Max, v)
		}
	}
}
