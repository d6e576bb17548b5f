package config

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// ErrRedisDisabled is returned when no Redis address is configured.
var ErrRedisDisabled = errors.New("redis is not configured")

// RedisFromEnv reads REDIS_ADDR (default: 127.0.0.1:6379), REDIS_DB (default: 0),
// and REDIS_PASSWORD (optional).
func RedisFromEnv() RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	db, err := strconv.Atoi(os.Getenv("REDIS_DB"))
	if err != nil {
		db = 0
	}

	return RedisConfig{
		Addr:     addr,
		DB:       db,
		Password: os.Getenv("REDIS_PASSWORD"),
	}
}

// NewRedisClient creates a Redis client and checks the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, ErrRedisDisabled
	}

	log.Printf("NewRedisClient: addr=%s db=%d passwordSet=%v", cfg.Addr, cfg.DB, cfg.Password != "")

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("NewRedisClient: failed to ping Redis: %v", err)
		client.Close()
		return nil, err
	}

	log.Printf("NewRedisClient: successfully connected to Redis")
	return client, nil
}
