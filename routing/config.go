package routing

import (
	"github.com/pkg/errors"
)

// Config holds the matcher's tuning parameters.
type Config struct {
	// SigmaMeters is the standard deviation of GPS noise.
	SigmaMeters float64

	// MaxCandidates is the number of candidates kept per trace point.
	MaxCandidates int

	// SearchLatDelta and SearchLonDelta inflate the box around a trace point
	// when looking for roads, in degrees.
	SearchLatDelta float64
	SearchLonDelta float64

	// MaxExpansions bounds a single A* search. Zero means unlimited.
	MaxExpansions int
}

// DefaultConfig returns the standard matching parameters.
func DefaultConfig() Config {
	return Config{
		SigmaMeters:    30,
		MaxCandidates:  5,
		SearchLatDelta: 0.0007,
		SearchLonDelta: 0.0011,
	}
}

// Validate reports the first out-of-range parameter.
func (c Config) Validate() error {
	if c.SigmaMeters <= 0 {
		return errors.Errorf("sigma must be positive, got %v", c.SigmaMeters)
	}
	if c.MaxCandidates <= 0 {
		return errors.Errorf("max candidates must be positive, got %d", c.MaxCandidates)
	}
	if c.SearchLatDelta < 0 || c.SearchLonDelta < 0 {
		return errors.New("search deltas must not be negative")
	}
	if c.MaxExpansions < 0 {
		return errors.Errorf("max expansions must not be negative, got %d", c.MaxExpansions)
	}
	return nil
}
