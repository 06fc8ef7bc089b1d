package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copyleftdev/ZEPHYR/internal/config"
	"github.com/copyleftdev/ZEPHYR/internal/logging"
	"github.com/copyleftdev/ZEPHYR/internal/metrics"
	"github.com/copyleftdev/ZEPHYR/internal/optimization"
	"github.com/copyleftdev/ZEPHYR/internal/optimization/objectives"
	"github.com/copyleftdev/ZEPHYR/internal/optimization/pso"
)

// Logger defines the logging interface used by the server
// This allows us to be flexible with our logging implementation
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// RunRequest is the caller-facing parameter set for one swarm run. Zero
// values fall back to the server's configured defaults.
type RunRequest struct {
	Objective        string      `json:"objective"`
	Bounds           [][]float64 `json:"bounds"`
	Population       int         `json:"population,omitempty"`
	Inertia          float64     `json:"inertia,omitempty"`
	Cognitive        float64     `json:"cognitive,omitempty"`
	Social           float64     `json:"social,omitempty"`
	MaxIterations    int         `json:"max_iterations,omitempty"`
	PlateauWindow    int         `json:"plateau_window,omitempty"`
	PlateauTolerance float64     `json:"plateau_tolerance,omitempty"`
	RandomSeed       int64       `json:"random_seed,omitempty"`
	SeedVector       []float64   `json:"seed_vector,omitempty"`
}

// OptimizationState represents the state of an optimization job.
// It tracks the progress, status, and results of a swarm run.
// The state is thread-safe and can be accessed concurrently.
type OptimizationState struct {
	ID          string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	StartTime   time.Time
	EndTime     *time.Time
	Result      *optimization.Result
	Optimizer   optimization.Optimizer
	CancelFunc  context.CancelFunc
	LastUpdated time.Time
}

// Server implements the HTTP and JSON-RPC surface of the optimization
// service. It manages swarm jobs and provides endpoints to start, monitor,
// and cancel them.
type Server struct {
	cfg    *config.Config
	logger Logger

	// Optimization state management
	optimizations   map[string]*OptimizationState
	optimizationsMu sync.RWMutex // Protects the optimizations map
}

// NewServer creates a new server instance with the given config and logger
// The logger parameter accepts any type that implements the Logger interface
func NewServer(cfg *config.Config, logger Logger) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		optimizations: make(map[string]*OptimizationState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Get("/objectives", s.handleObjectives)
		r.Delete("/optimization/{id}", s.handleCancel)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string        `json:"jsonrpc"`
		ID      interface{}   `json:"id"`
		Method  string        `json:"method"`
		Params  []interface{} `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, -32700, "Parse error", nil)
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, -32600, "Invalid Request", nil)
		return
	}

	// Route to appropriate handler
	var result interface{}
	var err error

	switch request.Method {
	case "swarm.start":
		result, err = s.handleSwarmStart(request.Params)
	case "swarm.status":
		result, err = s.handleSwarmStatus(request.Params)
	case "swarm.cancel":
		err = s.handleSwarmCancel(request.Params)
	default:
		s.respondWithError(w, -32601, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, -32000, "Server error", request.ID)
		return
	}

	// Send successful response
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleSwarmStart handles the swarm.start JSON-RPC method.
// It starts a new swarm run with the specified parameters.
// Expected parameters: {"objective": "sphere", "bounds": [[-5, 5]], ...}
// Returns: {"optimization_id": "opt_123", "status": "pending"}
func (s *Server) handleSwarmStart(params []interface{}) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("missing required parameters")
	}

	paramMap, ok := params[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid parameter format, expected object")
	}

	// Round-trip through JSON so the RPC path and the REST path share one
	// request schema.
	raw, err := json.Marshal(paramMap)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %v", err)
	}
	var req RunRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("invalid parameters: %v", err)
	}

	return s.startRun(&req)
}

// startRun validates a run request, builds the engine, and launches the run
// in its own goroutine. The engine itself stays strictly sequential.
func (s *Server) startRun(req *RunRequest) (interface{}, error) {
	if req.Objective == "" {
		return nil, fmt.Errorf("objective name is required")
	}
	objective, ok := objectives.Lookup(req.Objective)
	if !ok {
		return nil, fmt.Errorf("unknown objective %q", req.Objective)
	}
	if len(req.Bounds) == 0 {
		return nil, fmt.Errorf("bounds are required")
	}

	bounds := make(optimization.Bounds, len(req.Bounds))
	for i, b := range req.Bounds {
		if len(b) != 2 {
			return nil, fmt.Errorf("invalid bounds format, expected [[min1, max1], [min2, max2], ...]")
		}
		bounds[i] = [2]float64{b[0], b[1]}
	}

	// Generate a unique ID for this run
	id := fmt.Sprintf("opt_%d", time.Now().UnixNano())

	engineCfg := s.engineConfig(req, id)
	engineCfg.Objective = s.instrument(req.Objective, objective)
	engineCfg.Bounds = bounds

	optimizer, err := pso.NewPSOOptimizer(engineCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create optimizer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	state := &OptimizationState{
		ID:          id,
		Status:      "pending",
		StartTime:   time.Now(),
		Optimizer:   optimizer,
		CancelFunc:  cancel,
		LastUpdated: time.Now(),
	}

	s.optimizationsMu.Lock()
	s.optimizations[id] = state
	s.optimizationsMu.Unlock()

	go s.runOptimization(ctx, state)

	return map[string]interface{}{
		"optimization_id": id,
		"status":          "pending",
	}, nil
}

// engineConfig merges request parameters over the server's configured swarm
// defaults.
func (s *Server) engineConfig(req *RunRequest, id string) pso.Config {
	cfg := pso.Config{
		PopulationSize:   s.cfg.Swarm.PopulationSize,
		Inertia:          s.cfg.Swarm.Inertia,
		Cognitive:        s.cfg.Swarm.Cognitive,
		Social:           s.cfg.Swarm.Social,
		MaxIterations:    s.cfg.Swarm.MaxIterations,
		PlateauWindow:    s.cfg.Swarm.PlateauWindow,
		PlateauTolerance: s.cfg.Swarm.PlateauTolerance,
		RandomSeed:       req.RandomSeed,
		SeedVector:       req.SeedVector,
		Logger: logging.NewZapLogger(s.logger.WithFields(map[string]interface{}{
			"optimization_id": id,
		})),
	}
	if req.Population > 0 {
		cfg.PopulationSize = req.Population
	}
	if req.Inertia != 0 {
		cfg.Inertia = req.Inertia
	}
	if req.Cognitive != 0 {
		cfg.Cognitive = req.Cognitive
	}
	if req.Social != 0 {
		cfg.Social = req.Social
	}
	if req.MaxIterations > 0 {
		cfg.MaxIterations = req.MaxIterations
	}
	if req.PlateauWindow > 0 {
		cfg.PlateauWindow = req.PlateauWindow
	}
	if req.PlateauTolerance > 0 {
		cfg.PlateauTolerance = req.PlateauTolerance
	}
	return cfg
}

// instrument wraps an objective with the Prometheus evaluation counters. The
// engine never sees the instrumentation; it is part of the collaborator.
func (s *Server) instrument(name string, fn optimization.ObjectiveFunc) optimization.ObjectiveFunc {
	return func(x []float64) (optimization.ObjectiveResult, error) {
		metrics.EvaluationsTotal.WithLabelValues(name).Inc()
		result, err := fn(x)
		if err != nil {
			metrics.EvaluationFailures.WithLabelValues(name).Inc()
		}
		return result, err
	}
}

// handleSwarmStatus handles the swarm.status JSON-RPC method.
// It returns the current status and results of a swarm run.
// Expected parameters: {"optimization_id": "opt_123"}
func (s *Server) handleSwarmStatus(params []interface{}) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("missing required parameters")
	}

	paramMap, ok := params[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid parameter format, expected object")
	}

	optimizationID, ok := paramMap["optimization_id"].(string)
	if !ok || optimizationID == "" {
		return nil, fmt.Errorf("optimization_id is required")
	}

	s.optimizationsMu.RLock()
	defer s.optimizationsMu.RUnlock()

	state, exists := s.optimizations[optimizationID]
	if !exists {
		return nil, fmt.Errorf("optimization not found")
	}

	response := map[string]interface{}{
		"status":      state.Status,
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
	}

	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}

	// Best solution and convergence trajectory so far
	if best := state.Optimizer.GetBestSolution(); best != nil {
		response["best_solution"] = map[string]interface{}{
			"parameters": best.Parameters,
			"fitness":    best.Fitness,
			"metrics":    best.Metrics,
		}
	}

	history := state.Optimizer.GetHistory()
	if len(history) > 0 {
		trajectory := make([]map[string]interface{}, len(history))
		for i, rec := range history {
			trajectory[i] = map[string]interface{}{
				"iteration":     rec.Iteration,
				"best_fitness":  rec.BestFitness,
				"best_position": rec.BestPosition,
				"best_metrics":  rec.BestMetrics,
			}
		}
		response["trajectory"] = trajectory
	}

	if state.Result != nil {
		response["iterations"] = state.Result.Iterations
		response["converged"] = state.Result.Converged
	}

	return response, nil
}

// handleSwarmCancel handles the swarm.cancel JSON-RPC method.
// Cancellation takes effect at the next iteration boundary; a dispatched
// evaluation always runs to completion first.
func (s *Server) handleSwarmCancel(params []interface{}) error {
	if len(params) == 0 {
		return fmt.Errorf("missing required parameters")
	}

	paramMap, ok := params[0].(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid parameter format, expected object")
	}

	optimizationID, ok := paramMap["optimization_id"].(string)
	if !ok || optimizationID == "" {
		return fmt.Errorf("optimization_id is required")
	}

	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	state, exists := s.optimizations[optimizationID]
	if !exists {
		return fmt.Errorf("optimization not found")
	}

	switch state.Status {
	case "completed", "failed", "cancelled":
		// Already in a terminal state
		return fmt.Errorf("cannot cancel optimization with status: %s", state.Status)
	}

	if state.CancelFunc != nil {
		state.CancelFunc()
	}

	state.Status = "cancelled"
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
	metrics.RunsTotal.WithLabelValues("cancelled").Inc()

	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"optimization_id": optimizationID,
	})

	return nil
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Error("Request error", map[string]interface{}{
		"status":  code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// runOptimization executes one swarm run in its own goroutine
func (s *Server) runOptimization(ctx context.Context, state *OptimizationState) {
	s.optimizationsMu.Lock()
	state.Status = "running"
	state.LastUpdated = time.Now()
	s.optimizationsMu.Unlock()

	result, err := state.Optimizer.Optimize(ctx)

	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	if state.Status == "cancelled" {
		// Cancel already recorded the terminal state
		return
	}

	if err != nil {
		s.logger.Error("Optimization failed", map[string]interface{}{
			"optimization_id": state.ID,
			"error":           err.Error(),
		})
		state.Status = "failed"
		metrics.RunsTotal.WithLabelValues("failed").Inc()
	} else {
		state.Status = "completed"
		state.Result = result
		metrics.RunsTotal.WithLabelValues("completed").Inc()

		fields := map[string]interface{}{
			"optimization_id": state.ID,
			"iterations":      result.Iterations,
			"converged":       result.Converged,
		}
		// Best is nil only when every single evaluation failed.
		if result.Best != nil {
			metrics.BestFitness.WithLabelValues(state.ID).Set(result.Best.Fitness)
			fields["best_fitness"] = result.Best.Fitness
		}
		s.logger.Info("Optimization completed", fields)
	}

	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
}

// Close cleans up resources
func (s *Server) Close() error {
	// Cancel all running optimizations
	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	for _, opt := range s.optimizations {
		if opt.CancelFunc != nil {
			opt.CancelFunc()
		}
	}
	return nil
}

// handleOptimize handles the HTTP POST /optimize endpoint for starting a new run
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	result, err := s.startRun(&req)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(result)
}

// handleObjectives handles GET /objectives, listing the registered
// benchmark objective names.
func (s *Server) handleObjectives(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"objectives": objectives.Names(),
	})
}

// handleStatus handles the HTTP GET /status/:id endpoint
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	optimizationID := chi.URLParam(r, "id")
	if optimizationID == "" {
		http.Error(w, "Missing optimization ID", http.StatusBadRequest)
		return
	}

	result, err := s.handleSwarmStatus([]interface{}{map[string]interface{}{
		"optimization_id": optimizationID,
	}})

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// handleCancel handles the HTTP DELETE /optimization/:id endpoint
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	optimizationID := chi.URLParam(r, "id")
	if optimizationID == "" {
		http.Error(w, "Missing optimization ID", http.StatusBadRequest)
		return
	}

	err := s.handleSwarmCancel([]interface{}{map[string]interface{}{
		"optimization_id": optimizationID,
	}})

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "cancellation requested",
	})
}
