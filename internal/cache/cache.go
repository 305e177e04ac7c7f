// Package cache provides a Redis-backed cache for ranked similarity
// results. Concurrent misses for the same key are collapsed with
// singleflight so the engine computes each ranking once.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/mediasearch/similarity-service/internal/engine/ranker"
	"github.com/mediasearch/similarity-service/pkg/config"
	pkgredis "github.com/mediasearch/similarity-service/pkg/redis"
)

const keyPrefix = "similarity:"

// ResultCache caches ranked results keyed by query kind and parameters.
type ResultCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a ResultCache on the given Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *ResultCache {
	return &ResultCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "result-cache"),
	}
}

// RecordKey builds the cache key for a similar-to-record query.
func RecordKey(id int64, limit int) string {
	return buildKey("record", strconv.FormatInt(id, 10), strconv.Itoa(limit))
}

// QueryKey builds the cache key for a free-text query. The query string is
// hashed so arbitrary user input never lands in a Redis key.
func QueryKey(text string, limit int) string {
	sum := sha256.Sum256([]byte(text))
	return buildKey("query", fmt.Sprintf("%x", sum[:12]), strconv.Itoa(limit))
}

func buildKey(kind string, parts ...string) string {
	key := keyPrefix + kind
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// GetOrCompute returns cached results for key, or runs computeFn exactly
// once per key across concurrent callers and caches the outcome. The bool
// reports whether the result came from cache.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	key string,
	computeFn func() ([]ranker.ScoredRecord, error),
) ([]ranker.ScoredRecord, bool, error) {
	if results, ok := c.get(ctx, key); ok {
		return results, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if results, ok := c.get(ctx, key); ok {
			return results, nil
		}
		results, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, results)
		return results, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]ranker.ScoredRecord), false, nil
}

func (c *ResultCache) get(ctx context.Context, key string) ([]ranker.ScoredRecord, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var results []ranker.ScoredRecord
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key)
	return results, true
}

func (c *ResultCache) set(ctx context.Context, key string, results []ranker.ScoredRecord) {
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// Invalidate removes every cached result. Called after each index rebuild,
// since any ranking may have changed.
func (c *ResultCache) Invalidate(ctx context.Context) {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		c.logger.Error("cache invalidation failed", "error", err)
		return
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
}

// Stats returns hit and miss counts since startup.
func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
