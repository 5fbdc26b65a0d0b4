package monitor

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rkarmaka98/anomalyctl/anomaly"
)

// Alert is the latest anomaly raised on a stream.
type Alert struct {
	ID       string           `json:"id" yaml:"id"`
	Stream   string           `json:"stream" yaml:"stream"`
	Value    float64          `json:"value" yaml:"value"`
	Score    float64          `json:"score" yaml:"score"`
	Strategy anomaly.Strategy `json:"strategy" yaml:"strategy"`
	Message  string           `json:"message" yaml:"message"`
	At       time.Time        `json:"at" yaml:"at"`
}

// AlertStore keeps the most recent alert per stream and is safe for
// concurrent use.
type AlertStore struct {
	alerts sync.Map // stream -> Alert
}

func NewAlertStore() *AlertStore {
	return &AlertStore{}
}

// Record stores an alert for r on stream, replacing any earlier one.
func (s *AlertStore) Record(stream string, r anomaly.Result, at time.Time) Alert {
	a := Alert{
		ID:       uuid.NewString(),
		Stream:   stream,
		Value:    r.Value,
		Score:    r.Score,
		Strategy: r.Strategy,
		Message:  fmt.Sprintf("%s anomaly: %.2f (score %.2f)", r.Strategy, r.Value, r.Score),
		At:       at,
	}
	s.alerts.Store(stream, a)
	return a
}

// List returns the current alerts ordered by stream name.
func (s *AlertStore) List() []Alert {
	var out []Alert
	s.alerts.Range(func(_, value any) bool {
		out = append(out, value.(Alert))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Stream < out[j].Stream })
	return out
}

func (s *AlertStore) Len() int {
	n := 0
	s.alerts.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
