package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/docxmark/internal/logger"
	"github.com/docxmark/internal/queue"
)

// HandlerFunc processes a job. It should return an error if processing fails.
type HandlerFunc func(ctx context.Context, job queue.Job) error

// Router dispatches jobs to handlers by job type.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]HandlerFunc)}
}

// Handle registers the handler for a job type.
func (r *Router) Handle(jobType string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = h
}

// Dispatch runs the handler registered for job.Type.
func (r *Router) Dispatch(ctx context.Context, job queue.Job) error {
	r.mu.RLock()
	h, ok := r.handlers[job.Type]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	return h(ctx, job)
}

// StartWorkers starts a pool of workers that process jobs from the queue
// and blocks until all of them stop.
// ctx: context for cancellation (workers will stop when context is cancelled)
// q: the queue to dequeue jobs from
// handler: function to process each job
// workerCount: number of worker goroutines to start
func StartWorkers(ctx context.Context, q queue.Queue, handler HandlerFunc, workerCount int) error {
	if workerCount < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", workerCount)
	}
	logger.Printf("StartWorkers: workerCount=%d", workerCount)

	var wg sync.WaitGroup
	wg.Add(workerCount)

	for i := 0; i < workerCount; i++ {
		workerID := i + 1
		go func() {
			defer wg.Done()
			workerLoop(ctx, q, handler, workerID)
		}()
	}

	// Wait for all workers to finish
	wg.Wait()
	logger.Printf("StartWorkers: all workers stopped")
	return nil
}

// workerLoop is the main loop for a single worker.
func workerLoop(ctx context.Context, q queue.Queue, handler HandlerFunc, workerID int) {
	logger.Debugf("workerLoop: workerID=%d started", workerID)

	for {
		if ctx.Err() != nil {
			logger.Debugf("workerLoop: workerID=%d context cancelled, stopping", workerID)
			return
		}

		// Dequeue a job (this blocks until a job is available or context is cancelled)
		job, err := q.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, queue.ErrQueueClosed) {
				logger.Debugf("workerLoop: workerID=%d stopping: %v", workerID, err)
				return
			}
			logger.Warnf("workerLoop: workerID=%d dequeue error: %v, continuing", workerID, err)
			continue
		}

		logger.Debugf("workerLoop: workerID=%d processing job id=%s type=%s", workerID, job.ID, job.Type)

		if err := runHandler(ctx, handler, job); err != nil {
			logger.Errorf("workerLoop: workerID=%d handler error for job id=%s type=%s: %v", workerID, job.ID, job.Type, err)
			continue
		}

		logger.Debugf("workerLoop: workerID=%d processed job id=%s", workerID, job.ID)
	}
}

// runHandler keeps a panicking handler from taking the worker down.
func runHandler(ctx context.Context, handler HandlerFunc, job queue.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, job)
}
