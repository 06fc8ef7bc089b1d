package objectives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSphere(t *testing.T) {
	result, err := Sphere([]float64{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Fitness)
	assert.Equal(t, 0.0, result.Metrics["norm"])

	result, err = Sphere([]float64{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 25.0, result.Fitness)
	assert.Equal(t, 5.0, result.Metrics["norm"])
}

func TestRosenbrock(t *testing.T) {
	result, err := Rosenbrock([]float64{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Fitness)
	assert.Equal(t, 0.0, result.Metrics["distance_to_optimum"])

	_, err = Rosenbrock([]float64{1})
	assert.Error(t, err)
}

func TestRastrigin(t *testing.T) {
	result, err := Rastrigin([]float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, result.Fitness, 1e-12)
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		fn, ok := Lookup(name)
		assert.True(t, ok)
		assert.NotNil(t, fn)
	}

	_, ok := Lookup("vspaero")
	assert.False(t, ok)
}

func TestNamesSorted(t *testing.T) {
	assert.Equal(t, []string{"rastrigin", "rosenbrock", "sphere"}, Names())
}
