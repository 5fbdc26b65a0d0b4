package anomaly

// PrecisionRecallF1 scores predicted verdicts against labelled truth. Pairs
// beyond the shorter slice are ignored, and a ratio with a zero denominator
// is 0.
func PrecisionRecallF1(predicted, actual []bool) (precision, recall, f1 float64) {
	var tp, fp, fn int
	for i := 0; i < len(predicted) && i < len(actual); i++ {
		switch {
		case predicted[i] && actual[i]:
			tp++
		case predicted[i]:
			fp++
		case actual[i]:
			fn++
		}
	}
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}
