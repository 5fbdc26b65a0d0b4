package anomaly

import (
	"fmt"
	"strings"
)

// Strategy selects the decision procedure a Detector dispatches to.
type Strategy int

const (
	// StrategyZScore flags values more than threshold standard deviations from the mean.
	StrategyZScore Strategy = iota
	// StrategyIsolation flags windows whose deterministic isolation score exceeds threshold.
	StrategyIsolation
	// StrategyRobust flags values whose deviation from the median exceeds threshold MADs.
	StrategyRobust
)

func (s Strategy) String() string {
	switch s {
	case StrategyZScore:
		return "zscore"
	case StrategyIsolation:
		return "isolation"
	case StrategyRobust:
		return "robust"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a configuration string onto a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zscore", "z-score", "z_score":
		return StrategyZScore, nil
	case "isolation", "isolation-forest", "isolation_forest":
		return StrategyIsolation, nil
	case "robust", "mad":
		return StrategyRobust, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// evaluator is implemented by each strategy. values is the window content
// the baseline was computed from, value the newest observation.
type evaluator interface {
	detect(values []float64, b Baseline, value, threshold float64) bool
	score(values []float64, b Baseline, value float64) float64
	// rescan scores every member of values against the same baseline.
	rescan(values []float64, b Baseline, threshold float64) []Result
}

func evaluatorFor(s Strategy) evaluator {
	switch s {
	case StrategyIsolation:
		return isolationEvaluator{}
	case StrategyRobust:
		return robustEvaluator{}
	default:
		return zScoreEvaluator{}
	}
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
