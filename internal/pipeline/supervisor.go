package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"callaudit/internal/logging"
)

// Supervisor owns the stage workers and runs them as a unit.
type Supervisor struct {
	workers []*Worker
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSupervisor wires workers into a single start/stop surface.
func NewSupervisor(logger *slog.Logger, workers ...*Worker) *Supervisor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Supervisor{
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Start launches one goroutine per stage worker.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("pipeline already running")
	}
	if len(s.workers) == 0 {
		return errors.New("pipeline workers not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(len(s.workers))
	for _, worker := range s.workers {
		go func(w *Worker) {
			defer s.wg.Done()
			w.Run(runCtx)
		}(worker)
	}
	s.logger.Info("pipeline started", logging.Int("workers", len(s.workers)))
	return nil
}

// Stop terminates the workers and waits for them to drain.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("pipeline stopped")
}

// Health runs every worker's health check and reports the results.
func (s *Supervisor) Health(ctx context.Context) []Health {
	results := make([]Health, 0, len(s.workers))
	for _, worker := range s.workers {
		results = append(results, worker.HealthCheck(ctx))
	}
	return results
}

// Running reports whether the supervisor has active workers.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
