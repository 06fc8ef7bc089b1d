package pso

import (
	"github.com/copyleftdev/ZEPHYR/internal/optimization"
)

// recorder is the append-only run history. It is owned by the engine for the
// duration of a run and handed to the caller inside the result; the engine
// never mutates an appended record.
type recorder struct {
	records []optimization.IterationRecord
}

func newRecorder(capacity int) *recorder {
	return &recorder{
		records: make([]optimization.IterationRecord, 0, capacity),
	}
}

// record appends one completed iteration's snapshot: all particle positions
// plus the global best as it stood when the iteration finished.
func (r *recorder) record(iteration int, s *Swarm) {
	pos, fit, metrics := s.Best()
	r.records = append(r.records, optimization.IterationRecord{
		Iteration:    iteration,
		Positions:    s.positions(),
		BestPosition: append([]float64(nil), pos...),
		BestFitness:  fit,
		BestMetrics:  metrics,
	})
}

func (r *recorder) history() []optimization.IterationRecord {
	return r.records
}
