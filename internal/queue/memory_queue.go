package queue

import (
	"context"
	"sync"
)

// MemoryQueue is an in-process Queue backed by a buffered channel.
// It is used when Redis is not configured.
type MemoryQueue struct {
	jobs   chan Job
	done   chan struct{}
	closed sync.Once
}

// NewMemoryQueue creates a queue holding up to size pending jobs.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 64
	}
	return &MemoryQueue{
		jobs: make(chan Job, size),
		done: make(chan struct{}),
	}
}

// Enqueue adds a job, blocking while the buffer is full.
func (m *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case <-m.done:
		return ErrQueueClosed
	default:
	}

	select {
	case m.jobs <- job:
		return nil
	case <-m.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a job is available.
func (m *MemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case job := <-m.jobs:
		return job, nil
	case <-m.done:
		return Job{}, ErrQueueClosed
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Len returns the number of pending jobs.
func (m *MemoryQueue) Len() int {
	return len(m.jobs)
}

// Close stops the queue. Pending jobs are dropped.
func (m *MemoryQueue) Close() {
	m.closed.Do(func() { close(m.done) })
}
