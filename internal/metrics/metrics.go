// Package metrics exposes the Prometheus instrumentation for the
// optimization service. Everything is registered on the default registry and
// served by promhttp in main.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EvaluationsTotal counts objective evaluations, by objective name.
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zephyr_objective_evaluations_total",
		Help: "Total objective function evaluations.",
	}, []string{"objective"})

	// EvaluationFailures counts evaluations that failed or returned a
	// non-finite fitness.
	EvaluationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zephyr_objective_evaluation_failures_total",
		Help: "Objective evaluations that failed and were recorded at the worst-fitness ceiling.",
	}, []string{"objective"})

	// RunsTotal counts optimization runs by terminal status.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zephyr_optimization_runs_total",
		Help: "Optimization runs by terminal status.",
	}, []string{"status"})

	// BestFitness tracks the most recent global-best fitness per job.
	BestFitness = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "zephyr_optimization_best_fitness",
		Help: "Current global-best fitness of a run.",
	}, []string{"optimization_id"})
)
