package pso

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/ZEPHYR/internal/optimization"
)

func sumOfSquares(x []float64) (optimization.ObjectiveResult, error) {
	f := 0.0
	for _, v := range x {
		f += v * v
	}
	return optimization.ObjectiveResult{
		Fitness: f,
		Metrics: map[string]float64{"norm": math.Sqrt(f)},
	}, nil
}

func testConfig() Config {
	return Config{
		Objective:      sumOfSquares,
		Bounds:         optimization.Bounds{{0, 10}, {0, 10}},
		PopulationSize: 3,
		Inertia:        0.4,
		Cognitive:      2.02,
		Social:         2.02,
		MaxIterations:  3,
		RandomSeed:     4,
	}
}

func TestNewPSOOptimizer(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid configuration",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing objective",
			mutate:  func(c *Config) { c.Objective = nil },
			wantErr: true,
		},
		{
			name:    "empty bounds",
			mutate:  func(c *Config) { c.Bounds = nil },
			wantErr: true,
		},
		{
			name:    "inverted bounds",
			mutate:  func(c *Config) { c.Bounds = optimization.Bounds{{5, 1}} },
			wantErr: true,
		},
		{
			name:    "population below one",
			mutate:  func(c *Config) { c.PopulationSize = 0 },
			wantErr: true,
		},
		{
			name:    "seed vector dimension mismatch",
			mutate:  func(c *Config) { c.SeedVector = []float64{1, 2, 3} },
			wantErr: true,
		},
		{
			name:    "negative plateau window",
			mutate:  func(c *Config) { c.PlateauWindow = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			opt, err := NewPSOOptimizer(cfg)
			if tt.wantErr {
				require.Error(t, err)
				_, ok := optimization.IsOptimizationError(err)
				assert.True(t, ok, "construction failures should be optimization errors")
				return
			}
			require.NoError(t, err)
			require.NotNil(t, opt)
		})
	}
}

func TestNewPSOOptimizerDefaults(t *testing.T) {
	cfg := Config{
		Objective:      sumOfSquares,
		Bounds:         optimization.Bounds{{0, 10}, {0, 10}},
		PopulationSize: 3,
	}

	opt, err := NewPSOOptimizer(cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultInertia, opt.config.Inertia)
	assert.Equal(t, DefaultCognitive, opt.config.Cognitive)
	assert.Equal(t, DefaultSocial, opt.config.Social)
	assert.Equal(t, DefaultMaxIterations, opt.config.MaxIterations)
	assert.Equal(t, DefaultPlateauWindow, opt.config.PlateauWindow)
	assert.Equal(t, DefaultPlateauTolerance, opt.config.PlateauTolerance)
}

func TestConstructionErrorContext(t *testing.T) {
	cfg := testConfig()
	cfg.Bounds = optimization.Bounds{{5, 1}}

	_, err := NewPSOOptimizer(cfg)
	require.Error(t, err)

	e, ok := optimization.IsOptimizationError(err)
	require.True(t, ok)
	assert.Equal(t, "pso", e.Component)
	assert.Equal(t, "new", e.Op)
	assert.Error(t, e.Unwrap(), "the bounds validation error is preserved underneath")
}

func TestInitializeSeedVector(t *testing.T) {
	cfg := testConfig()
	cfg.SeedVector = []float64{7.5, 3.0}

	opt, err := NewPSOOptimizer(cfg)
	require.NoError(t, err)
	require.NoError(t, opt.initialize(context.Background()))

	particles := opt.swarm.Particles()
	require.Len(t, particles, 3)

	// Particle 0 starts at the seed vector, everyone starts at zero velocity
	// with personal best equal to the starting point.
	assert.Equal(t, []float64{7.5, 3.0}, particles[0].Position)
	for _, p := range particles {
		assert.Equal(t, make([]float64, 2), p.Velocity)
		assert.Equal(t, p.Position, p.BestPosition)
		assert.True(t, opt.config.Bounds.Contains(p.Position))
	}

	// Global best was chosen during initialization.
	_, best, _ := opt.swarm.Best()
	assert.Less(t, best, optimization.WorstFitness)
}

func TestBoundaryInvariant(t *testing.T) {
	// Coefficients large enough that nearly every raw update overshoots the
	// box; clamping must keep every observed position inside anyway.
	cfg := testConfig()
	cfg.Inertia = 2.0
	cfg.Cognitive = 8.0
	cfg.Social = 8.0
	cfg.MaxIterations = 20

	opt, err := NewPSOOptimizer(cfg)
	require.NoError(t, err)
	result, err := opt.Optimize(context.Background())
	require.NoError(t, err)

	for _, rec := range result.History {
		for _, pos := range rec.Positions {
			assert.True(t, cfg.Bounds.Contains(pos),
				"iteration %d: position %v escaped bounds", rec.Iteration, pos)
		}
		assert.True(t, cfg.Bounds.Contains(rec.BestPosition))
	}
	assert.True(t, cfg.Bounds.Contains(result.Best.Parameters))
}

func TestMonotonicGlobalBest(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIterations = 25
	cfg.PopulationSize = 5

	opt, err := NewPSOOptimizer(cfg)
	require.NoError(t, err)
	result, err := opt.Optimize(context.Background())
	require.NoError(t, err)

	prev := math.Inf(1)
	for _, rec := range result.History {
		assert.LessOrEqual(t, rec.BestFitness, prev,
			"global best regressed at iteration %d", rec.Iteration)
		prev = rec.BestFitness
	}
	assert.Equal(t, prev, result.Best.Fitness)
}

func TestPersonalBestDominance(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIterations = 15

	opt, err := NewPSOOptimizer(cfg)
	require.NoError(t, err)
	_, err = opt.Optimize(context.Background())
	require.NoError(t, err)

	for i, p := range opt.swarm.Particles() {
		current, err := sumOfSquares(p.Position)
		require.NoError(t, err)
		assert.LessOrEqual(t, p.BestFitness, current.Fitness,
			"particle %d personal best above current fitness", i)
	}
}

func TestSeedDeterminism(t *testing.T) {
	run := func() *optimization.Result {
		opt, err := NewPSOOptimizer(testConfig())
		require.NoError(t, err)
		result, err := opt.Optimize(context.Background())
		require.NoError(t, err)
		return result
	}

	a := run()
	b := run()

	require.Equal(t, a.Iterations, b.Iterations)
	require.Equal(t, len(a.History), len(b.History))
	for i := range a.History {
		assert.Equal(t, a.History[i].Positions, b.History[i].Positions)
		assert.Equal(t, a.History[i].BestFitness, b.History[i].BestFitness)
	}
	assert.Equal(t, a.Best.Parameters, b.Best.Parameters)
	assert.Equal(t, a.Best.Fitness, b.Best.Fitness)
}

func TestSentinelIsolation(t *testing.T) {
	failing := func(x []float64) (optimization.ObjectiveResult, error) {
		return optimization.ObjectiveResult{}, optimization.NewError("solver produced no result")
	}

	cfg := testConfig()
	cfg.Objective = failing
	cfg.MaxIterations = 5

	opt, err := NewPSOOptimizer(cfg)
	require.NoError(t, err)
	result, err := opt.Optimize(context.Background())
	require.NoError(t, err, "evaluation failures must never abort the run")

	// Every evaluation failed, so the global best never left its placeholder
	// and no failed candidate was promoted to a legitimate best.
	assert.Nil(t, result.Best)
	for _, rec := range result.History {
		assert.Equal(t, optimization.WorstFitness, rec.BestFitness)
	}
	assert.Equal(t, 5, result.Iterations)
}

func TestNonFiniteFitnessTreatedAsFailure(t *testing.T) {
	calls := 0
	objective := func(x []float64) (optimization.ObjectiveResult, error) {
		calls++
		if calls%2 == 0 {
			return optimization.ObjectiveResult{Fitness: math.NaN()}, nil
		}
		return sumOfSquares(x)
	}

	cfg := testConfig()
	cfg.Objective = objective
	cfg.MaxIterations = 10

	opt, err := NewPSOOptimizer(cfg)
	require.NoError(t, err)
	result, err := opt.Optimize(context.Background())
	require.NoError(t, err)

	require.NotNil(t, result.Best)
	assert.Less(t, result.Best.Fitness, optimization.WorstFitness)
	assert.False(t, math.IsNaN(result.Best.Fitness))
}

func TestStoppingAtIterationCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIterations = 5
	cfg.PlateauTolerance = 1e-12 // plateau effectively never met in 5 iterations

	opt, err := NewPSOOptimizer(cfg)
	require.NoError(t, err)
	result, err := opt.Optimize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, result.Iterations)
	assert.Len(t, result.History, 5)
	assert.False(t, result.Converged)
}

func TestStoppingOnPlateau(t *testing.T) {
	constant := func(x []float64) (optimization.ObjectiveResult, error) {
		return optimization.ObjectiveResult{Fitness: 1.0}, nil
	}

	cfg := testConfig()
	cfg.Objective = constant
	cfg.MaxIterations = 100
	cfg.PlateauWindow = 5
	cfg.PlateauTolerance = 1e-4

	opt, err := NewPSOOptimizer(cfg)
	require.NoError(t, err)
	result, err := opt.Optimize(context.Background())
	require.NoError(t, err)

	// Constant fitness from the first iteration: the run must stop as soon as
	// 2W iterations of history exist, not later.
	assert.Equal(t, 10, result.Iterations)
	assert.True(t, result.Converged)
}

func TestStoppingOnPlateauWithDefaultTolerance(t *testing.T) {
	constant := func(x []float64) (optimization.ObjectiveResult, error) {
		return optimization.ObjectiveResult{Fitness: 1.0}, nil
	}

	// Tolerance and window deliberately unset; the defaults must still arm
	// plateau detection rather than leaving it unsatisfiable.
	cfg := testConfig()
	cfg.Objective = constant
	cfg.MaxIterations = 100

	opt, err := NewPSOOptimizer(cfg)
	require.NoError(t, err)
	result, err := opt.Optimize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2*DefaultPlateauWindow, result.Iterations)
	assert.True(t, result.Converged)
}

func TestConcreteScenario(t *testing.T) {
	// D=2, bounds [(0,10),(0,10)], pop=3, omega=0.4, lambda1=lambda2=2.02,
	// 3 iterations, sum of squares with its minimum at the origin corner.
	opt, err := NewPSOOptimizer(testConfig())
	require.NoError(t, err)
	result, err := opt.Optimize(context.Background())
	require.NoError(t, err)

	require.Len(t, result.History, 3)
	assert.LessOrEqual(t, result.History[2].BestFitness, result.History[0].BestFitness)
	assert.True(t, opt.config.Bounds.Contains(result.Best.Parameters))
	assert.NotNil(t, result.Best.Metrics)
	assert.Contains(t, result.Best.Metrics, "norm")
}

func TestOptimizeCancellation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIterations = 1000

	opt, err := NewPSOOptimizer(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := opt.Optimize(ctx)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestStopDuringRun(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIterations = 1000

	var opt *PSOOptimizer
	calls := 0
	cfg.Objective = func(x []float64) (optimization.ObjectiveResult, error) {
		calls++
		// Request a stop partway through the first iteration; the iteration
		// still runs to completion before the run winds down.
		if calls == cfg.PopulationSize+1 {
			opt.Stop()
		}
		return sumOfSquares(x)
	}

	opt, err := NewPSOOptimizer(cfg)
	require.NoError(t, err)

	result, err := opt.Optimize(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.Len(t, opt.GetHistory(), 1)
}

func TestStopBeforeRunIsNoOp(t *testing.T) {
	opt, err := NewPSOOptimizer(testConfig())
	require.NoError(t, err)

	// No run in flight yet; Stop must be safe to call.
	opt.Stop()

	result, err := opt.Optimize(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
}
