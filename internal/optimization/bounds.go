package optimization

import (
	"math/rand"
)

// Bounds is the per-dimension [min, max] box constraining the search space.
// It is treated as immutable for the duration of a run.
type Bounds [][2]float64

// Dims returns the dimensionality of the search space.
func (b Bounds) Dims() int {
	return len(b)
}

// Validate checks that the box is well-formed: at least one dimension and
// min <= max everywhere.
func (b Bounds) Validate() error {
	if len(b) == 0 {
		return NewError("bounds must have at least one dimension").
			WithComponent("bounds").WithOperation("validate")
	}
	for i, dim := range b {
		if dim[0] > dim[1] {
			return NewErrorf("dimension %d: min %v greater than max %v", i, dim[0], dim[1]).
				WithComponent("bounds").WithOperation("validate")
		}
	}
	return nil
}

// Clamp saturates x in place to the box and returns it. Out-of-range
// coordinates are moved to the nearest boundary, never rejected or wrapped.
func (b Bounds) Clamp(x []float64) []float64 {
	for i := range x {
		if x[i] < b[i][0] {
			x[i] = b[i][0]
		} else if x[i] > b[i][1] {
			x[i] = b[i][1]
		}
	}
	return x
}

// Contains reports whether every coordinate of x lies inside the box.
func (b Bounds) Contains(x []float64) bool {
	if len(x) != len(b) {
		return false
	}
	for i, v := range x {
		if v < b[i][0] || v > b[i][1] {
			return false
		}
	}
	return true
}

// Sample draws one point with each coordinate uniform over its interval.
func (b Bounds) Sample(rng *rand.Rand) []float64 {
	x := make([]float64, len(b))
	for i, dim := range b {
		x[i] = dim[0] + rng.Float64()*(dim[1]-dim[0])
	}
	return x
}
