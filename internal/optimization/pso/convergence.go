package pso

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// PlateauDetector decides when the global best has stagnated. It compares the
// mean global-best fitness over the most recent W iterations against the mean
// over the W iterations immediately before that window; if the absolute
// difference falls below the tolerance the run is considered stagnant. The
// two windows never overlap.
type PlateauDetector struct {
	window    int
	tolerance float64
	history   []float64
}

// NewPlateauDetector creates a detector with window size w and the given
// tolerance. w must be >= 1 (validated by the engine constructor).
func NewPlateauDetector(w int, tolerance float64) *PlateauDetector {
	return &PlateauDetector{
		window:    w,
		tolerance: tolerance,
	}
}

// Observe appends one completed iteration's global-best fitness.
func (d *PlateauDetector) Observe(best float64) {
	d.history = append(d.history, best)
}

// Stagnant reports whether the plateau condition holds. It is always false
// until at least 2W iterations have been observed.
func (d *PlateauDetector) Stagnant() bool {
	n := len(d.history)
	if n < 2*d.window {
		return false
	}
	curr := stat.Mean(d.history[n-d.window:], nil)
	prev := stat.Mean(d.history[n-2*d.window:n-d.window], nil)
	return math.Abs(curr-prev) < d.tolerance
}

// History returns the recorded global-best trajectory.
func (d *PlateauDetector) History() []float64 {
	return append([]float64(nil), d.history...)
}
