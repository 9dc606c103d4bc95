// internal/fetcher/cache.go
package fetcher

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/common/metrics"
)

const cacheKeyPrefix = "collections:batch:"

// Cache stores complete batches in Redis so repeated list requests from
// different sessions share one set of lookups. A nil *Cache is a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &Cache{client: client, ttl: ttl, logger: log}
}

// CacheKey is independent of id order.
func CacheKey(ids []string, month string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	sum := sha1.Sum([]byte(strings.Join(sorted, ",")))
	if month == "" {
		month = "none"
	}
	return cacheKeyPrefix + month + ":" + hex.EncodeToString(sum[:])
}

func (c *Cache) Get(ctx context.Context, ids []string, month string) (*Batch, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, CacheKey(ids, month)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.FetchCacheResults.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.FetchCacheResults.WithLabelValues("error").Inc()
		c.logger.Warn("batch cache read failed", map[string]interface{}{"error": err})
		return nil, false
	}

	batch := newBatch()
	if err := json.Unmarshal(raw, batch); err != nil {
		metrics.FetchCacheResults.WithLabelValues("error").Inc()
		c.logger.Warn("batch cache entry unreadable", map[string]interface{}{"error": err})
		return nil, false
	}
	metrics.FetchCacheResults.WithLabelValues("hit").Inc()
	return batch, true
}

func (c *Cache) Set(ctx context.Context, ids []string, month string, batch *Batch) {
	if c == nil || batch == nil {
		return
	}
	raw, err := json.Marshal(batch)
	if err != nil {
		c.logger.Warn("batch cache encode failed", map[string]interface{}{"error": err})
		return
	}
	if err := c.client.Set(ctx, CacheKey(ids, month), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("batch cache write failed", map[string]interface{}{"error": err})
	}
}

// Invalidate drops every cached batch for month. Writes call this so the next
// list request sees their change.
func (c *Cache) Invalidate(ctx context.Context, month string) error {
	if c == nil {
		return nil
	}
	if month == "" {
		month = "none"
	}
	pattern := cacheKeyPrefix + month + ":*"
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
