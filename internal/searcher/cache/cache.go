// Package cache memoises search results in Redis. Concurrent misses for the
// same query are coalesced so the corpus is scored once.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/resilience"
)

const keyPrefix = "docsearch:"

// Store is the subset of *redis.Client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteMatching(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store     Store
	ttl       time.Duration
	namespace string
	group     singleflight.Group
	breaker   *resilience.Breaker
	metrics   *metrics.Metrics
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// New returns a cache writing under namespace, which should identify the
// corpus (for example its root) so that two corpora never share entries.
// m may be nil.
func New(store Store, ttl time.Duration, namespace string, m *metrics.Metrics) *QueryCache {
	sum := sha256.Sum256([]byte(namespace))
	return &QueryCache{
		store:     store,
		ttl:       ttl,
		namespace: fmt.Sprintf("%x", sum[:6]),
		metrics:   m,
		breaker:   resilience.NewBreaker("query-cache", resilience.BreakerConfig{}),
		logger:    slog.Default().With("component", "query-cache"),
	}
}

// Get returns a cached result. Store errors are logged and count as misses;
// repeated errors open the breaker and the store is skipped for a while.
func (c *QueryCache) Get(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, bool) {
	key := c.buildKey(plan, limit)
	var data []byte
	err := c.breaker.Do(func() error {
		var err error
		data, err = c.store.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			data = nil
			return nil
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.recordMiss()
		return nil, false
	}
	if data == nil {
		c.recordMiss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	c.logger.Debug("cache hit", "query", plan.RawQuery, "key", key)
	return &result, true
}

// Set stores result. Failures are logged, never returned.
func (c *QueryCache) Set(ctx context.Context, plan *parser.QueryPlan, limit int, result *executor.SearchResult) {
	key := c.buildKey(plan, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Do(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or runs compute once per key across
// concurrent callers and caches its result. The bool reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	plan *parser.QueryPlan,
	limit int,
	compute func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, plan, limit); ok {
		return result, true, nil
	}
	key := c.buildKey(plan, limit)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, plan, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate drops every entry in this cache's namespace.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.DeleteMatching(ctx, c.keyBase()+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *QueryCache) keyBase() string {
	return keyPrefix + c.namespace + ":"
}

func (c *QueryCache) buildKey(plan *parser.QueryPlan, limit int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|limit=%d", plan.Key(), limit)))
	return fmt.Sprintf("%s%x", c.keyBase(), hash[:16])
}
