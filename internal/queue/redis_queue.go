package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/docxmark/internal/logger"
)

// RedisQueue implements Queue using Redis Lists.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue creates a new Redis-backed queue.
// client: the Redis client to use
// key: the Redis key name for the queue (e.g., "jobs:docxmark")
func NewRedisQueue(ctx context.Context, client *redis.Client, key string) (*RedisQueue, error) {
	if key == "" {
		key = "jobs:docxmark"
	}

	logger.Debugf("NewRedisQueue: key=%s", key)

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Errorf("NewRedisQueue: failed to ping Redis: %v", err)
		return nil, err
	}

	return &RedisQueue{
		client: client,
		key:    key,
	}, nil
}

// Enqueue adds a job to the queue using RPUSH.
func (r *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Enqueue: failed to marshal job: %v", err)
		return err
	}

	if err := r.client.RPush(ctx, r.key, data).Err(); err != nil {
		logger.Errorf("Enqueue: failed to push to Redis: %v", err)
		return err
	}

	logger.Debugf("Enqueue: key=%s id=%s type=%s payloadSize=%d", r.key, job.ID, job.Type, len(data))
	return nil
}

// Dequeue blocks until a job is available using BLPOP, then returns it.
func (r *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}

	// Use a channel to handle context cancellation
	type result struct {
		val []string
		err error
	}
	resultChan := make(chan result, 1)

	go func() {
		val, err := r.client.BLPop(ctx, 0, r.key).Result()
		resultChan <- result{val: val, err: err}
	}()

	select {
	case <-ctx.Done():
		return Job{}, ctx.Err()
	case res := <-resultChan:
		if res.err != nil {
			if res.err == redis.Nil {
				return Job{}, ctx.Err()
			}
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			logger.Errorf("Dequeue: failed to pop from Redis: %v", res.err)
			return Job{}, res.err
		}

		if len(res.val) < 2 {
			return Job{}, fmt.Errorf("invalid result from Redis: expected 2 elements, got %d", len(res.val))
		}

		var job Job
		if err := json.Unmarshal([]byte(res.val[1]), &job); err != nil {
			logger.Errorf("Dequeue: failed to unmarshal job: %v", err)
			return Job{}, err
		}

		logger.Debugf("Dequeue: id=%s type=%s createdAt=%s", job.ID, job.Type, job.CreatedAt.Format(time.RFC3339))
		return job, nil
	}
}
