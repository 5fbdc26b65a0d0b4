package anomaly

import "sync"

// SyncDetector serialises every call on a Detector behind one mutex so a
// single stream can be fed from several goroutines. The push, recompute and
// evaluate sequence of Observe runs as one critical section.
type SyncDetector struct {
	mu sync.Mutex
	d  *Detector
}

// NewSync builds a Detector and wraps it.
func NewSync(capacity int, threshold float64, opts ...Option) (*SyncDetector, error) {
	d, err := New(capacity, threshold, opts...)
	if err != nil {
		return nil, err
	}
	return &SyncDetector{d: d}, nil
}

func (s *SyncDetector) Observe(value float64) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Observe(value)
}

func (s *SyncDetector) Detect(value float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Detect(value)
}

func (s *SyncDetector) Score(value float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Score(value)
}

func (s *SyncDetector) Rescan() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Rescan()
}

// Snapshot is a consistent read of a detector's window and baseline.
type Snapshot struct {
	Strategy Strategy
	Len      int
	Capacity int
	Values   []float64
	Baseline Baseline
}

func (s *SyncDetector) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Strategy: s.d.Strategy(),
		Len:      s.d.Len(),
		Capacity: s.d.Capacity(),
		Values:   s.d.Values(),
		Baseline: s.d.Baseline(),
	}
}
