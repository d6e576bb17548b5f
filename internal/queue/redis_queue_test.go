// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package queue

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/docxmark/internal/config"
)

func newTestRedisQueue(t *testing.T, prefix string) (*RedisQueue, context.Context) {
	t.Helper()

	// Skip if Redis is not available
	ctx := context.Background()
	client, err := config.NewRedisClient(ctx, config.RedisFromEnv())
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	// Use a unique queue key for this test
	queueKey := prefix + time.Now().Format("20060102150405.000000")
	q, err := NewRedisQueue(ctx, client, queueKey)
	if err != nil {
		t.Fatalf("NewRedisQueue failed: %v", err)
	}

	t.Cleanup(func() {
		client.Del(ctx, queueKey)
		client.Close()
	})
	return q, ctx
}

func TestRedisQueue_EnqueueDequeue(t *testing.T) {
	q, ctx := newTestRedisQueue(t, "test:queue:")

	job, err := NewJob("test_job", map[string]string{"test": "data"})
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}

	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	// Test dequeue with timeout
	dequeueCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	dequeued, err := q.Dequeue(dequeueCtx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}

	if dequeued.Type != job.Type {
		t.Errorf("Expected job type %s, got %s", job.Type, dequeued.Type)
	}
	if dequeued.ID != job.ID {
		t.Errorf("Expected job ID %s, got %s", job.ID, dequeued.ID)
	}

	var payload map[string]string
	if err := json.Unmarshal(dequeued.Payload, &payload); err != nil {
		t.Fatalf("Failed to unmarshal payload: %v", err)
	}
	if payload["test"] != "data" {
		t.Errorf("Expected payload data, got %v", payload)
	}
}

func TestRedisQueue_MultipleJobs(t *testing.T) {
	q, ctx := newTestRedisQueue(t, "test:queue:multi:")

	// Enqueue multiple jobs
	numJobs := 5
	for i := 0; i < numJobs; i++ {
		job := Job{
			ID:        strconv.Itoa(i),
			Type:      "test_job",
			Payload:   []byte(`{"index": ` + strconv.Itoa(i) + `}`),
			CreatedAt: time.Now(),
		}
		if err := q.Enqueue(ctx, job); err != nil {
			t.Fatalf("Enqueue failed for job %d: %v", i, err)
		}
	}

	dequeueCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// FIFO order
	for i := 0; i < numJobs; i++ {
		dequeued, err := q.Dequeue(dequeueCtx)
		if err != nil {
			t.Fatalf("Dequeue failed for job %d: %v", i, err)
		}
		if dequeued.ID != strconv.Itoa(i) {
			t.Errorf("Expected job %d, got %s", i, dequeued.ID)
		}
	}
}

func TestRedisQueue_ContextCancellation(t *testing.T) {
	q, ctx := newTestRedisQueue(t, "test:queue:cancel:")

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel() // Cancel immediately

	_, err := q.Dequeue(cancelCtx)
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
