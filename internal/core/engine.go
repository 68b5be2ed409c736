// Package core provides the monitoring engine of pagewatch.
//
// The engine is responsible for:
//   - Running the periodic check cycle that enqueues every page
//   - Accepting on-demand checks for single pages
//   - Executing queued checks on a fixed worker pool
//   - Recording results and feeding the live event broker
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"pagewatch/internal/checks"
	"pagewatch/internal/config"
	"pagewatch/internal/events"
	"pagewatch/internal/storage"
)

// ErrEngineStopped is returned when work is submitted to a stopped engine.
var ErrEngineStopped = errors.New("monitoring engine is not running")

// cycleJobID identifies the periodic check cycle in the scheduler.
const cycleJobID = "check_cycle"

// Engine represents the core monitoring engine.
type Engine struct {
	config    config.SchedulerConfig
	storage   *storage.Storage
	checker   checks.Checker
	recorder  *Recorder
	scheduler *Scheduler
	queue     *WorkQueue

	running bool
	mu      sync.RWMutex
}

// NewEngine creates a new monitoring engine.
//
// Parameters:
//   - cfg: Scheduler configuration (interval, pool and batch sizes)
//   - store: Storage instance for data persistence
//   - checker: Probe used for every page
//   - broker: Live event broker, may be nil
//
// Returns:
//   - *Engine: Initialized engine instance, not yet started
func NewEngine(cfg config.SchedulerConfig, store *storage.Storage, checker checks.Checker, broker *events.Broker) *Engine {
	return &Engine{
		config:    cfg,
		storage:   store,
		checker:   checker,
		recorder:  NewRecorder(store, broker),
		scheduler: NewScheduler(),
	}
}

// Start launches the worker pool and the periodic check cycle. The first
// cycle runs immediately.
//
// Parameters:
//   - ctx: Context bounding the scheduler; in-flight checks are not cancelled by it
//
// Returns:
//   - error: Any error that occurred during startup
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("engine is already running")
	}

	log.Info().
		Dur("interval", e.config.Interval).
		Int("workers", e.config.WorkerCount).
		Int("queue_size", e.config.QueueSize).
		Msg("Starting monitoring engine")

	e.queue = NewWorkQueue(e.config.QueueSize, e.config.WorkerCount, e.runCheckTask)
	e.queue.Start(context.WithoutCancel(ctx))

	if err := e.scheduler.Start(ctx); err != nil {
		e.queue.Close()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	job := &ScheduledJob{
		ID:       cycleJobID,
		Interval: e.config.Interval,
		Task:     e.enqueueAllPages,
	}
	if err := e.scheduler.AddJob(job); err != nil {
		e.scheduler.Stop()
		e.queue.Close()
		return fmt.Errorf("failed to schedule check cycle: %w", err)
	}

	e.running = true
	log.Info().Msg("Monitoring engine started successfully")

	return nil
}

// IsRunning returns whether the engine is currently running.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Stop stops the cycle, stops accepting checks and waits for in-flight
// checks to be recorded.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	log.Info().Msg("Stopping monitoring engine")

	e.scheduler.Stop()
	e.queue.Close()

	e.running = false
	log.Info().Msg("Monitoring engine stopped")
}

// EnqueueCheck queues one on-demand check of pageID without blocking.
// Repeated calls queue repeated checks. It returns ErrQueueFull when the
// queue has no free slot.
func (e *Engine) EnqueueCheck(pageID uint) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.running {
		return ErrEngineStopped
	}
	return e.queue.Submit(pageID)
}

// QueueDepth returns the number of checks waiting for a worker.
func (e *Engine) QueueDepth() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.queue == nil {
		return 0
	}
	return e.queue.Depth()
}
