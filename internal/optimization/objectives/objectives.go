// Package objectives provides named benchmark objective functions for
// exercising the swarm engine without an external evaluator attached.
// Each one reports auxiliary metrics alongside its fitness, matching the
// contract an aerodynamic evaluator would use for quantities like L/D.
package objectives

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/ZEPHYR/internal/optimization"
)

// Sphere is the sum-of-squares function, minimum 0 at the origin.
func Sphere(x []float64) (optimization.ObjectiveResult, error) {
	f := floats.Dot(x, x)
	return optimization.ObjectiveResult{
		Fitness: f,
		Metrics: map[string]float64{
			"norm": math.Sqrt(f),
		},
	}, nil
}

// Rosenbrock is the classic banana valley, minimum 0 at (1, ..., 1).
// Requires at least two dimensions.
func Rosenbrock(x []float64) (optimization.ObjectiveResult, error) {
	if len(x) < 2 {
		return optimization.ObjectiveResult{}, optimization.NewError("rosenbrock needs at least 2 dimensions").
			WithComponent("objectives").WithOperation("rosenbrock")
	}
	f := 0.0
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1 - x[i]
		f += 100*a*a + b*b
	}
	return optimization.ObjectiveResult{
		Fitness: f,
		Metrics: map[string]float64{
			"distance_to_optimum": distanceTo(x, 1),
		},
	}, nil
}

// Rastrigin is highly multimodal, minimum 0 at the origin.
func Rastrigin(x []float64) (optimization.ObjectiveResult, error) {
	f := 10 * float64(len(x))
	for _, v := range x {
		f += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return optimization.ObjectiveResult{
		Fitness: f,
		Metrics: map[string]float64{
			"distance_to_optimum": distanceTo(x, 0),
		},
	}, nil
}

func distanceTo(x []float64, c float64) float64 {
	d := make([]float64, len(x))
	for i, v := range x {
		d[i] = v - c
	}
	return floats.Norm(d, 2)
}

var registry = map[string]optimization.ObjectiveFunc{
	"sphere":     Sphere,
	"rosenbrock": Rosenbrock,
	"rastrigin":  Rastrigin,
}

// Lookup returns the named objective, or nil and false when unknown.
func Lookup(name string) (optimization.ObjectiveFunc, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Names returns the registered objective names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
