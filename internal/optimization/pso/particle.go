package pso

// Particle is one candidate solution: its current position and velocity plus
// the best position/fitness it has personally visited.
type Particle struct {
	Position     []float64
	Velocity     []float64
	BestPosition []float64
	BestFitness  float64
}

// newParticle creates a particle at pos with zero velocity. The personal best
// is left unset until the first evaluation.
func newParticle(pos []float64) *Particle {
	return &Particle{
		Position: pos,
		Velocity: make([]float64, len(pos)),
	}
}

// Observe records the fitness of the particle's current position and updates
// the personal best on strict improvement. Ties keep the earlier best.
// Returns true if the personal best changed.
func (p *Particle) Observe(fitness float64) bool {
	if p.BestPosition != nil && fitness >= p.BestFitness {
		return false
	}
	p.BestFitness = fitness
	p.BestPosition = append([]float64(nil), p.Position...)
	return true
}
