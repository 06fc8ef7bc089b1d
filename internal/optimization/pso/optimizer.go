// Package pso implements particle swarm optimization over a bounded box.
// Evaluations are sequential and blocking: the external evaluator owns
// non-reentrant state (one loaded model at a time), so no two objective
// calls ever overlap.
package pso

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/ZEPHYR/internal/optimization"
)

// Classic parameter values; the defaults the original wing study converged on.
const (
	DefaultInertia          = 0.4
	DefaultCognitive        = 2.02
	DefaultSocial           = 2.02
	DefaultMaxIterations    = 50
	DefaultPlateauWindow    = 5
	DefaultPlateauTolerance = 1e-4
)

// Config contains the full construction surface of the engine.
type Config struct {
	// Objective function to optimize (required)
	Objective optimization.ObjectiveFunc

	// Bounds for each dimension [min, max] (required); len(Bounds) is the
	// dimensionality of the search
	Bounds optimization.Bounds

	// Number of particles in the swarm
	PopulationSize int

	// Velocity rule coefficients; zero values take the Default* constants
	Inertia   float64
	Cognitive float64
	Social    float64

	// Maximum number of iterations; zero takes DefaultMaxIterations
	MaxIterations int

	// Plateau detection: window size W and tolerance on the W-vs-W
	// mean-difference of the global-best trajectory. Zero values take the
	// Default* constants.
	PlateauWindow    int
	PlateauTolerance float64

	// Random seed for reproducibility; 0 seeds from the clock
	RandomSeed int64

	// SeedVector, when set, pins particle 0's starting position so a
	// known-good baseline design is always evaluated first
	SeedVector []float64

	// Logger receives warn-level events for failed evaluations; nil disables
	Logger *zap.Logger
}

// PSOOptimizer implements optimization.Optimizer with a fixed-size particle
// swarm, strict-improvement best tracking, and plateau-based stopping.
type PSOOptimizer struct {
	config Config

	rng     *rand.Rand
	swarm   *Swarm
	plateau *PlateauDetector
	rec     *recorder
	logger  *zap.Logger

	mu   sync.RWMutex
	best *optimization.Solution

	cancel context.CancelFunc
}

// NewPSOOptimizer validates the configuration and builds an engine. All
// configuration errors are fatal here; a constructed engine always completes
// its run with a well-formed result.
func NewPSOOptimizer(config Config) (*PSOOptimizer, error) {
	if config.Objective == nil {
		return nil, optimization.NewError("objective function is required").
			WithComponent("pso").WithOperation("new")
	}
	if err := config.Bounds.Validate(); err != nil {
		return nil, optimization.WrapError(err, "invalid bounds").
			WithComponent("pso").WithOperation("new")
	}
	if config.PopulationSize < 1 {
		return nil, optimization.NewErrorf("population size must be >= 1, got %d", config.PopulationSize).
			WithComponent("pso").WithOperation("new")
	}
	if config.SeedVector != nil && len(config.SeedVector) != config.Bounds.Dims() {
		return nil, optimization.NewErrorf("seed vector has %d dimensions, bounds have %d",
			len(config.SeedVector), config.Bounds.Dims()).
			WithComponent("pso").WithOperation("new")
	}
	if config.PlateauWindow < 0 {
		return nil, optimization.NewErrorf("plateau window must be >= 1, got %d", config.PlateauWindow).
			WithComponent("pso").WithOperation("new")
	}

	if config.Inertia == 0 {
		config.Inertia = DefaultInertia
	}
	if config.Cognitive == 0 {
		config.Cognitive = DefaultCognitive
	}
	if config.Social == 0 {
		config.Social = DefaultSocial
	}
	if config.MaxIterations < 1 {
		config.MaxIterations = DefaultMaxIterations
	}
	if config.PlateauWindow == 0 {
		config.PlateauWindow = DefaultPlateauWindow
	}
	if config.PlateauTolerance <= 0 {
		config.PlateauTolerance = DefaultPlateauTolerance
	}

	rng := rand.New(rand.NewSource(config.RandomSeed))
	if config.RandomSeed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PSOOptimizer{
		config:  config,
		rng:     rng,
		swarm:   newSwarm(config.PopulationSize),
		plateau: NewPlateauDetector(config.PlateauWindow, config.PlateauTolerance),
		rec:     newRecorder(config.MaxIterations),
		logger:  logger,
	}, nil
}

// Optimize runs the swarm to termination: initialization, then iterations
// until the cap or the plateau condition is hit. At least one full iteration
// always executes after initialization before any stopping check.
func (o *PSOOptimizer) Optimize(ctx context.Context) (*optimization.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	defer cancel()

	if err := o.initialize(ctx); err != nil {
		return nil, err
	}

	iterations := 0
	converged := false
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		iterations++
		o.step()

		o.mu.Lock()
		o.rec.record(iterations, o.swarm)
		o.mu.Unlock()
		_, best, _ := o.swarm.Best()
		o.plateau.Observe(best)

		if o.plateau.Stagnant() {
			converged = true
			break
		}
		if iterations >= o.config.MaxIterations {
			break
		}
	}

	return &optimization.Result{
		Best:       o.GetBestSolution(),
		Iterations: iterations,
		Converged:  converged,
		History:    o.rec.history(),
	}, nil
}

// GetBestSolution returns the best solution found so far
func (o *PSOOptimizer) GetBestSolution() *optimization.Solution {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.best
}

// GetHistory returns the per-iteration history recorded so far
func (o *PSOOptimizer) GetHistory() []optimization.IterationRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.rec.history()
}

// Stop stops the optimization at the next iteration boundary. A dispatched
// evaluation always runs to completion first.
func (o *PSOOptimizer) Stop() {
	o.mu.RLock()
	cancel := o.cancel
	o.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// initialize samples the starting swarm, evaluates every particle once, and
// seeds the personal and global bests. Particle 0 takes the caller-supplied
// seed vector when one is configured.
func (o *PSOOptimizer) initialize(ctx context.Context) error {
	for i := 0; i < o.config.PopulationSize; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var pos []float64
		if i == 0 && o.config.SeedVector != nil {
			pos = append([]float64(nil), o.config.SeedVector...)
		} else {
			pos = o.config.Bounds.Sample(o.rng)
		}
		o.config.Bounds.Clamp(pos)

		p := newParticle(pos)
		fitness, metrics := o.evaluate(p.Position)
		p.Observe(fitness)
		o.swarm.particles = append(o.swarm.particles, p)
		if o.swarm.observe(p.Position, fitness, metrics) {
			o.setBest()
		}
	}
	return nil
}

// step advances every particle by one velocity/position update and one
// evaluation. The global best is read live, so later particles in the same
// iteration are already pulled toward an improvement found earlier in it.
func (o *PSOOptimizer) step() {
	for _, p := range o.swarm.Particles() {
		gbest, _, _ := o.swarm.Best()
		if gbest == nil {
			// Every evaluation so far failed; the social term degrades to a
			// second cognitive pull until a real best exists.
			gbest = p.BestPosition
		}

		for j := range p.Position {
			r1 := o.rng.Float64()
			r2 := o.rng.Float64()
			p.Velocity[j] = o.config.Inertia*p.Velocity[j] +
				o.config.Cognitive*r1*(p.BestPosition[j]-p.Position[j]) +
				o.config.Social*r2*(gbest[j]-p.Position[j])
			p.Position[j] += p.Velocity[j]
		}
		o.config.Bounds.Clamp(p.Position)

		fitness, metrics := o.evaluate(p.Position)
		p.Observe(fitness)
		if o.swarm.observe(p.Position, fitness, metrics) {
			o.setBest()
		}
	}
}

// evaluate calls the objective once and maps failures and non-finite fitness
// values to the reserved WorstFitness ceiling so a single bad configuration
// cannot abort the search.
func (o *PSOOptimizer) evaluate(x []float64) (float64, map[string]float64) {
	result, err := o.config.Objective(x)
	if err != nil {
		o.logger.Warn("objective evaluation failed",
			zap.Float64s("position", x),
			zap.Error(err))
		return optimization.WorstFitness, nil
	}
	if math.IsNaN(result.Fitness) || math.IsInf(result.Fitness, 0) {
		o.logger.Warn("objective returned non-finite fitness",
			zap.Float64s("position", x),
			zap.Float64("fitness", result.Fitness))
		return optimization.WorstFitness, nil
	}
	return result.Fitness, result.Metrics
}

func (o *PSOOptimizer) setBest() {
	pos, fit, metrics := o.swarm.Best()
	o.mu.Lock()
	o.best = &optimization.Solution{
		Parameters: append([]float64(nil), pos...),
		Fitness:    fit,
		Metrics:    metrics,
	}
	o.mu.Unlock()
}
