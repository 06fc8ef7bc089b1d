package pso

import (
	"github.com/copyleftdev/ZEPHYR/internal/optimization"
)

// Swarm is the fixed-size particle collection plus the shared global-best
// record and the auxiliary metrics attached to it. The metrics payload is
// opaque to the engine; it is whatever the objective reported when the best
// was set.
type Swarm struct {
	particles []*Particle

	bestPosition []float64
	bestFitness  float64
	bestMetrics  map[string]float64
}

func newSwarm(size int) *Swarm {
	return &Swarm{
		particles:   make([]*Particle, 0, size),
		bestFitness: optimization.WorstFitness,
	}
}

// Size returns the population count.
func (s *Swarm) Size() int {
	return len(s.particles)
}

// Particles returns the swarm's particles in order.
func (s *Swarm) Particles() []*Particle {
	return s.particles
}

// Best returns the global-best position, fitness, and metrics.
func (s *Swarm) Best() ([]float64, float64, map[string]float64) {
	return s.bestPosition, s.bestFitness, s.bestMetrics
}

// observe updates the global best on strict improvement. The placeholder
// best sits at WorstFitness, so a sentinel-valued candidate never wins.
// Returns true if the global best changed.
func (s *Swarm) observe(pos []float64, fitness float64, metrics map[string]float64) bool {
	if fitness >= s.bestFitness {
		return false
	}
	s.bestFitness = fitness
	s.bestPosition = append([]float64(nil), pos...)
	s.bestMetrics = metrics
	return true
}

// positions returns a copy of every particle's current position, in order.
func (s *Swarm) positions() [][]float64 {
	out := make([][]float64, len(s.particles))
	for i, p := range s.particles {
		out[i] = append([]float64(nil), p.Position...)
	}
	return out
}
