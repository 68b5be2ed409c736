package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ScheduledJob represents a job that can be scheduled for periodic execution.
type ScheduledJob struct {
	// ID is a unique identifier for the job
	ID string

	// Interval is how often the job should run
	Interval time.Duration

	// Task is the function to execute
	Task func(context.Context) error

	// Internal fields
	ticker  *time.Ticker
	cancel  context.CancelFunc
	running bool
}

// Scheduler runs jobs on fixed intervals.
//
// Each job runs once when added and then on every tick. Runs of the same job
// never overlap: a tick that fires while the previous run is still busy is
// dropped. Failed runs are logged and not retried.
type Scheduler struct {
	jobs   map[string]*ScheduledJob
	jobsMu sync.RWMutex

	running bool
	ctx     context.Context
	mu      sync.RWMutex
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewScheduler creates an idle scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		jobs: make(map[string]*ScheduledJob),
	}
}

// Start starts the scheduler. Jobs are bound to ctx and stop when it is done.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: if the scheduler is already running
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	log.Info().Msg("Scheduler started")

	return nil
}

// Stop stops all jobs and waits for running tasks to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	log.Info().Msg("Stopping scheduler")

	if s.cancel != nil {
		s.cancel()
	}

	s.jobsMu.Lock()
	for _, job := range s.jobs {
		s.stopJobUnsafe(job)
	}
	s.jobs = make(map[string]*ScheduledJob)
	s.jobsMu.Unlock()

	s.wg.Wait()

	s.running = false
	log.Info().Msg("Scheduler stopped")
}

// AddJob adds a new job to the scheduler and starts it immediately.
//
// Parameters:
//   - job: Job to add and schedule
//
// Returns:
//   - error: Any error that occurred during job addition
func (s *Scheduler) AddJob(job *ScheduledJob) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return fmt.Errorf("scheduler is not running")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("job %s has non-positive interval", job.ID)
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job with ID %s already exists", job.ID)
	}

	if err := s.startJobUnsafe(job); err != nil {
		return fmt.Errorf("failed to start job %s: %w", job.ID, err)
	}

	s.jobs[job.ID] = job
	log.Debug().Str("job_id", job.ID).Dur("interval", job.Interval).Msg("Job added")

	return nil
}

// RemoveJob removes a job from the scheduler and stops it.
//
// Parameters:
//   - jobID: ID of the job to remove
//
// Returns:
//   - error: if no such job exists
func (s *Scheduler) RemoveJob(jobID string) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("job with ID %s not found", jobID)
	}

	s.stopJobUnsafe(job)
	delete(s.jobs, jobID)

	log.Debug().Str("job_id", jobID).Msg("Job removed")
	return nil
}

// GetJobCount returns the number of currently scheduled jobs.
func (s *Scheduler) GetJobCount() int {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()
	return len(s.jobs)
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// startJobUnsafe starts a job; the caller holds jobsMu.
func (s *Scheduler) startJobUnsafe(job *ScheduledJob) error {
	if job.running {
		return fmt.Errorf("job is already running")
	}

	jobCtx, cancel := context.WithCancel(s.ctx)
	job.cancel = cancel
	job.ticker = time.NewTicker(job.Interval)

	s.wg.Add(1)
	go s.runJob(jobCtx, job)

	job.running = true
	return nil
}

// stopJobUnsafe stops a job; the caller holds jobsMu.
func (s *Scheduler) stopJobUnsafe(job *ScheduledJob) {
	if !job.running {
		return
	}

	if job.cancel != nil {
		job.cancel()
	}
	if job.ticker != nil {
		job.ticker.Stop()
	}

	job.running = false
}

// runJob executes the task immediately and then on every tick until ctx is done.
func (s *Scheduler) runJob(ctx context.Context, job *ScheduledJob) {
	defer s.wg.Done()
	defer job.ticker.Stop()

	log.Debug().Str("job_id", job.ID).Msg("Job started")

	s.executeJobTask(ctx, job)

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("job_id", job.ID).Msg("Job stopped")
			return
		case <-job.ticker.C:
			s.executeJobTask(ctx, job)
		}
	}
}

// executeJobTask runs one iteration of the job and logs its outcome.
func (s *Scheduler) executeJobTask(ctx context.Context, job *ScheduledJob) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	if err := job.Task(ctx); err != nil {
		if ctx.Err() != nil {
			log.Debug().Str("job_id", job.ID).Err(err).Msg("Job interrupted by shutdown")
			return
		}
		log.Error().Str("job_id", job.ID).Err(err).Msg("Job failed")
		return
	}

	log.Debug().Str("job_id", job.ID).Dur("took", time.Since(start)).Msg("Job completed")
}
