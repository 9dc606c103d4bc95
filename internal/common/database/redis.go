// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"collections-dashboard/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient backs the batch cache and saved filter preferences.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds a pooled client. List requests fan out cache reads, so the
// pool keeps half its connections warm.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     poolSize,
		MinIdleConns: poolSize / 2,
	})

	return &RedisClient{Client: rdb}, nil
}

func (c *RedisClient) Name() string { return "redis" }

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
