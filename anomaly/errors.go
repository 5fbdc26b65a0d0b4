package anomaly

import "errors"

var (
	// ErrInvalidCapacity is returned when a window or detector is built with capacity <= 0.
	ErrInvalidCapacity = errors.New("anomaly: capacity must be greater than zero")
	// ErrInvalidThreshold is returned for a negative or non-finite threshold.
	ErrInvalidThreshold = errors.New("anomaly: threshold must be a finite non-negative number")
	// ErrNonFiniteObservation is returned by Observe for NaN or ±Inf input.
	// The observation is dropped and the window is left unchanged.
	ErrNonFiniteObservation = errors.New("anomaly: observation is not a finite number")
	// ErrUnknownStrategy is returned by ParseStrategy.
	ErrUnknownStrategy = errors.New("anomaly: unknown strategy")
)
