package core

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	// ErrQueueFull is returned by Submit when no slot is free.
	ErrQueueFull = errors.New("check queue is full")

	// ErrQueueClosed is returned once the queue has been closed.
	ErrQueueClosed = errors.New("check queue is closed")
)

// TaskHandler processes one queued page id.
type TaskHandler func(ctx context.Context, pageID uint)

// WorkQueue is a bounded FIFO of page ids consumed by a fixed worker pool.
//
// Tasks carry no identity beyond the page id: submitting the same page twice
// runs two checks. Tasks still queued at Close are discarded; tasks already
// picked by a worker run to completion.
type WorkQueue struct {
	tasks   chan uint
	quit    chan struct{}
	handler TaskHandler
	workers int

	mu      sync.Mutex
	started bool
	closed  bool
	wg      sync.WaitGroup
}

// NewWorkQueue creates a queue holding up to size tasks, served by workers
// goroutines once started.
func NewWorkQueue(size, workers int, handler TaskHandler) *WorkQueue {
	return &WorkQueue{
		tasks:   make(chan uint, size),
		quit:    make(chan struct{}),
		handler: handler,
		workers: workers,
	}
}

// Start launches the worker pool. Handlers receive ctx, which should outlive
// Close so in-flight checks are not cut short.
func (q *WorkQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started || q.closed {
		return
	}
	q.started = true

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx, i)
	}
	log.Debug().Int("workers", q.workers).Int("capacity", cap(q.tasks)).Msg("Work queue started")
}

func (q *WorkQueue) work(ctx context.Context, id int) {
	defer q.wg.Done()

	for {
		// Prefer quitting over picking more work
		select {
		case <-q.quit:
			return
		default:
		}

		select {
		case <-q.quit:
			return
		case pageID := <-q.tasks:
			q.run(ctx, id, pageID)
		}
	}
}

func (q *WorkQueue) run(ctx context.Context, worker int, pageID uint) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int("worker", worker).Uint("page_id", pageID).Interface("panic", r).Msg("Check task panicked")
		}
	}()
	q.handler(ctx, pageID)
}

// Submit enqueues pageID without blocking.
func (q *WorkQueue) Submit(pageID uint) error {
	select {
	case <-q.quit:
		return ErrQueueClosed
	default:
	}

	select {
	case q.tasks <- pageID:
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitWait enqueues pageID, blocking while the queue is full.
func (q *WorkQueue) SubmitWait(ctx context.Context, pageID uint) error {
	select {
	case <-q.quit:
		return ErrQueueClosed
	default:
	}

	select {
	case q.tasks <- pageID:
		return nil
	case <-q.quit:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Depth returns the number of tasks waiting for a worker.
func (q *WorkQueue) Depth() int {
	return len(q.tasks)
}

// Close stops accepting tasks and waits for in-flight tasks to finish.
func (q *WorkQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.quit)
	q.mu.Unlock()

	q.wg.Wait()

	if dropped := len(q.tasks); dropped > 0 {
		log.Info().Int("dropped", dropped).Msg("Discarded queued checks at shutdown")
	}
}
