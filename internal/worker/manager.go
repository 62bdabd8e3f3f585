package worker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultShutdownTimeout - how long Stop waits for workers to return
const DefaultShutdownTimeout = 30 * time.Second

// runState - lifecycle of one registered worker
type runState struct {
	running bool
	err     error
}

// WorkerManager runs the background workers of a process and stops them together
type WorkerManager struct {
	workers         []Worker
	logger          *zap.Logger
	wg              sync.WaitGroup
	mu              sync.Mutex
	shutdownTimeout time.Duration

	states   map[string]*runState
	stopping bool
}

// NewWorkerManager creates a WorkerManager; a non-positive timeout means the default
func NewWorkerManager(logger *zap.Logger, shutdownTimeout time.Duration) *WorkerManager {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &WorkerManager{
		workers:         make([]Worker, 0),
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
		states:          make(map[string]*runState),
	}
}

// Register adds a worker; it is started by the next Start
func (m *WorkerManager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.workers = append(m.workers, w)
	m.states[w.Name()] = &runState{}
	m.logger.Info("Worker registered", zap.String("name", w.Name()))
}

// Start launches every registered worker and returns without waiting
func (m *WorkerManager) Start(ctx context.Context) error {
	m.mu.Lock()
	workers := make([]Worker, len(m.workers))
	copy(workers, m.workers)
	for _, w := range workers {
		m.states[w.Name()].running = true
	}
	m.mu.Unlock()

	if len(workers) == 0 {
		return fmt.Errorf("no workers registered")
	}

	m.logger.Info("Starting workers", zap.Int("count", len(workers)))

	// One goroutine per worker; the exit is recorded for Health
	for _, worker := range workers {
		m.wg.Add(1)
		go func(w Worker) {
			defer m.wg.Done()

			m.logger.Info("Starting worker", zap.String("name", w.Name()))
			err := w.Start(ctx)
			if err != nil {
				m.logger.Error("Worker failed",
					zap.String("name", w.Name()),
					zap.Error(err))
			}
			m.exited(w.Name(), err)
		}(worker)
	}

	return nil
}

func (m *WorkerManager) exited(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.states[name]
	state.running = false
	state.err = err
}

// Running returns the names of workers that have not returned yet, sorted
func (m *WorkerManager) Running() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.states))
	for name, state := range m.states {
		if state.running {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Health fails when a worker returned while the manager was not stopping.
// Its signature fits the HTTP health checks.
func (m *WorkerManager) Health(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopping {
		return nil
	}

	var dead []string
	for _, w := range m.workers {
		state := m.states[w.Name()]
		if state.running {
			continue
		}
		if state.err != nil {
			dead = append(dead, fmt.Sprintf("%s (%v)", w.Name(), state.err))
		} else {
			dead = append(dead, w.Name())
		}
	}
	if len(dead) > 0 {
		return fmt.Errorf("workers not running: %s", strings.Join(dead, ", "))
	}
	return nil
}

// Stop signals every worker and waits for them up to the shutdown timeout
func (m *WorkerManager) Stop() error {
	m.mu.Lock()
	m.stopping = true
	workers := make([]Worker, len(m.workers))
	copy(workers, m.workers)
	m.mu.Unlock()

	m.logger.Info("Stopping workers", zap.Int("count", len(workers)))

	// Signal first, then wait for all of them at once
	for _, worker := range workers {
		if err := worker.Stop(); err != nil {
			m.logger.Error("Failed to stop worker",
				zap.String("name", worker.Name()),
				zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All workers stopped gracefully")
	case <-time.After(m.shutdownTimeout):
		m.logger.Warn("Workers shutdown timed out, some tasks may not have completed",
			zap.Duration("timeout", m.shutdownTimeout),
			zap.Strings("still_running", m.Running()))
		return fmt.Errorf("workers shutdown timed out after %v", m.shutdownTimeout)
	}

	return nil
}
