package anomaly

// MinMaxNormalize rescales values onto [0, 1], mapping the minimum to 0 and
// the maximum to 1. A slice without range maps to all zeros. Values must be
// finite.
func MinMaxNormalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	b := ComputeBaseline(values)
	span := b.Max - b.Min
	if span == 0 {
		return out
	}
	if !finite(span) {
		// the range overflows float64; halves stay in range
		half := b.Max/2 - b.Min/2
		for i, v := range values {
			out[i] = (v/2 - b.Min/2) / half
		}
		return out
	}
	for i, v := range values {
		out[i] = (v - b.Min) / span
	}
	return out
}

// Standardize shifts and scales values to zero mean and unit population
// variance. A slice without spread maps to all zeros, as does one whose
// statistics overflow float64. Values must be finite.
func Standardize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	b := ComputeBaseline(values)
	if degenerate(b) {
		return out
	}
	for i, v := range values {
		out[i] = (v - b.Mean) / b.StdDev
	}
	return out
}
