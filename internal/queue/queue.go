package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrQueueClosed is returned by Dequeue and Enqueue after Close.
var ErrQueueClosed = errors.New("queue closed")

// Job represents a job in the queue.
type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewJob builds a job with a fresh ID and the JSON-encoded payload.
func NewJob(jobType string, payload interface{}) (Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   data,
		CreatedAt: time.Now(),
	}, nil
}

// Queue defines the interface for job queues.
type Queue interface {
	// Enqueue adds a job to the queue.
	Enqueue(ctx context.Context, job Job) error

	// Dequeue blocks until a job is available, then returns it.
	// Returns an error if the context is cancelled or if the operation fails.
	Dequeue(ctx context.Context) (Job, error)
}
