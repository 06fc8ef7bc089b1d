package pso

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/copyleftdev/ZEPHYR/internal/optimization"
)

func TestParticleObserve(t *testing.T) {
	p := newParticle([]float64{1, 2})

	// First observation always sets the personal best.
	assert.True(t, p.Observe(5.0))
	assert.Equal(t, 5.0, p.BestFitness)
	assert.Equal(t, []float64{1, 2}, p.BestPosition)

	// A tie does not move the best.
	p.Position = []float64{3, 4}
	assert.False(t, p.Observe(5.0))
	assert.Equal(t, []float64{1, 2}, p.BestPosition)

	// Strict improvement does.
	assert.True(t, p.Observe(4.0))
	assert.Equal(t, 4.0, p.BestFitness)
	assert.Equal(t, []float64{3, 4}, p.BestPosition)

	// The stored best is a copy, not an alias of the live position.
	p.Position[0] = 99
	assert.Equal(t, []float64{3, 4}, p.BestPosition)
}

func TestSwarmObserve(t *testing.T) {
	s := newSwarm(2)

	metrics := map[string]float64{"LD": 14.2}
	assert.True(t, s.observe([]float64{1}, 3.0, metrics))

	pos, fit, m := s.Best()
	assert.Equal(t, []float64{1}, pos)
	assert.Equal(t, 3.0, fit)
	assert.Equal(t, metrics, m)

	// Ties retain the first-found best, including its metrics.
	assert.False(t, s.observe([]float64{2}, 3.0, map[string]float64{"LD": 9.9}))
	pos, _, m = s.Best()
	assert.Equal(t, []float64{1}, pos)
	assert.Equal(t, 14.2, m["LD"])

	assert.True(t, s.observe([]float64{2}, 2.5, nil))
	_, fit, _ = s.Best()
	assert.Equal(t, 2.5, fit)
}

func TestSwarmSentinelNeverWins(t *testing.T) {
	s := newSwarm(2)

	// Against the initial placeholder, a sentinel-valued candidate ties and
	// is rejected.
	assert.False(t, s.observe([]float64{1}, optimization.WorstFitness, nil))
	pos, fit, _ := s.Best()
	assert.Nil(t, pos)
	assert.Equal(t, optimization.WorstFitness, fit)

	// Once a real best exists, a particle whose every evaluation failed can
	// never overwrite it.
	assert.True(t, s.observe([]float64{2}, 7.0, nil))
	assert.False(t, s.observe([]float64{3}, optimization.WorstFitness, nil))
	_, fit, _ = s.Best()
	assert.Equal(t, 7.0, fit)
}
