package queue

import (
	"context"
	"testing"
	"time"
)

func TestMemoryQueue_FIFO(t *testing.T) {
	q := NewMemoryQueue(4)
	defer q.Close()
	ctx := context.Background()

	for _, typ := range []string{"a", "b", "c"} {
		job, err := NewJob(typ, struct{}{})
		if err != nil {
			t.Fatalf("NewJob failed: %v", err)
		}
		if err := q.Enqueue(ctx, job); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}
	if q.Len() != 3 {
		t.Errorf("Expected 3 pending jobs, got %d", q.Len())
	}

	for _, want := range []string{"a", "b", "c"} {
		job, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
		if job.Type != want {
			t.Errorf("Expected job type %s, got %s", want, job.Type)
		}
		if job.ID == "" {
			t.Error("Expected job ID to be set")
		}
	}
}

func TestMemoryQueue_DequeueRespectsContext(t *testing.T) {
	q := NewMemoryQueue(1)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := q.Dequeue(ctx); err != context.DeadlineExceeded {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
}

func TestMemoryQueue_Close(t *testing.T) {
	q := NewMemoryQueue(1)
	q.Close()
	q.Close()

	if err := q.Enqueue(context.Background(), Job{Type: "x"}); err != ErrQueueClosed {
		t.Errorf("Expected ErrQueueClosed on Enqueue, got %v", err)
	}
	if _, err := q.Dequeue(context.Background()); err != ErrQueueClosed {
		t.Errorf("Expected ErrQueueClosed on Dequeue, got %v", err)
	}
}
