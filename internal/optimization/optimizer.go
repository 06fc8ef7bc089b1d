package optimization

import (
	"context"
)

// WorstFitness is the reserved fitness ceiling. Failed or non-finite
// evaluations are recorded at this value, and the global best starts here, so
// a failed candidate can never win a strict-improvement comparison.
const WorstFitness = 1e30

// Optimizer defines the interface for optimization algorithms
type Optimizer interface {
	// Optimize runs the optimization process
	Optimize(ctx context.Context) (*Result, error)

	// GetBestSolution returns the best solution found so far
	GetBestSolution() *Solution

	// GetHistory returns the per-iteration history recorded so far
	GetHistory() []IterationRecord

	// Stop gracefully stops the optimization process
	Stop()
}

// ObjectiveResult is what a single objective evaluation produces: a scalar
// fitness (lower is better) and any auxiliary named metrics the evaluator
// chooses to report alongside it (e.g. CL, CD, L/D for an aerodynamic run).
type ObjectiveResult struct {
	Fitness float64
	Metrics map[string]float64
}

// ObjectiveFunc defines the function to be optimized. The input vector is
// always clamped to the configured bounds before the call. A returned error
// marks the candidate as failed; it does not abort the run.
type ObjectiveFunc func(x []float64) (ObjectiveResult, error)

// Solution represents a solution in the optimization space
type Solution struct {
	Parameters []float64
	Fitness    float64
	Metrics    map[string]float64
}

// IterationRecord is one entry of the run history: every particle position at
// that iteration plus the global-best snapshot after the iteration completed.
type IterationRecord struct {
	Iteration    int
	Positions    [][]float64
	BestPosition []float64
	BestFitness  float64
	BestMetrics  map[string]float64
}

// Result contains the outcome of an optimization run
type Result struct {
	Best       *Solution
	Iterations int
	Converged  bool
	History    []IterationRecord
}
