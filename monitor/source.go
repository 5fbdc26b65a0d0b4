// Package monitor feeds samples from external systems into per-stream
// anomaly detectors and keeps the resulting alerts.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoDataPoints is returned when a source has nothing to report yet.
var ErrNoDataPoints = errors.New("no data points")

// Source produces one scalar sample per call.
type Source interface {
	Name() string
	Sample(ctx context.Context) (float64, error)
}

// ShareRef names a file share and the Azure resource its metrics live on.
type ShareRef struct {
	Name       string
	ResourceID string
}

// ParseShareList parses "name:resourceID" entries.
func ParseShareList(entries []string) ([]ShareRef, error) {
	shares := make([]ShareRef, 0, len(entries))
	for _, entry := range entries {
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, fmt.Errorf("invalid share entry %q, expected name:resourceID", entry)
		}
		shares = append(shares, ShareRef{
			Name:       strings.TrimSpace(parts[0]),
			ResourceID: strings.TrimSpace(parts[1]),
		})
	}
	return shares, nil
}
