// Package querycache caches ranked search results in Redis, keyed by the
// normalized query and result limit, and collapses concurrent identical
// queries with singleflight so a cache-miss storm only computes once. It is
// grounded on the teacher's searcher-side query cache: SHA-256 cache keys,
// a GetOrCompute accessor, and pattern-based invalidation on rebuild.
package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/elias-vance/lexishard/internal/ranker"
	"github.com/elias-vance/lexishard/pkg/metrics"
	"github.com/elias-vance/lexishard/pkg/redis"
	"github.com/elias-vance/lexishard/pkg/resilience"
)

const keyPrefix = "lexishard:query:"

// computeTimeout bounds a single uncached Rank call behind GetOrCompute's
// singleflight group: a pathological query against a large shard set should
// time out and free the other callers waiting on the same group key rather
// than block them indefinitely.
const computeTimeout = 5 * time.Second

// Cache wraps a Redis client with a singleflight group keyed by cache key.
type Cache struct {
	redis   *redis.Client
	ttl     time.Duration
	group   singleflight.Group
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New creates a Cache backed by rdb with the given entry TTL. m is optional
// (nil disables the cache_hits_total/cache_misses_total counters).
func New(rdb *redis.Client, ttl time.Duration, m *metrics.Metrics) *Cache {
	return &Cache{
		redis:   rdb,
		ttl:     ttl,
		log:     slog.Default().With("component", "querycache"),
		metrics: m,
	}
}

// Key derives the cache key for a normalized query's terms and limit.
func Key(queryTerms []string, limit int) string {
	sum := sha256.Sum256([]byte(strings.Join(queryTerms, " ") + "|" + strconv.Itoa(limit)))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// GetOrCompute returns the cached ranked results for key if present,
// otherwise calls compute, stores the result, and returns it, along with
// whether the result came from the cache. Concurrent callers sharing the
// same key block on a single in-flight compute call.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func() ([]ranker.ScoredDoc, error)) (results []ranker.ScoredDoc, hit bool, err error) {
	if cached, ok := c.get(ctx, key); ok {
		c.recordHit()
		return cached, true, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if cached, ok := c.get(ctx, key); ok {
			c.recordHit()
			return cached, nil
		}
		c.recordMiss()
		var computed []ranker.ScoredDoc
		err := resilience.WithTimeout(ctx, computeTimeout, "querycache-compute", func(context.Context) error {
			var computeErr error
			computed, computeErr = compute()
			return computeErr
		})
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, computed)
		return computed, nil
	})
	if err != nil {
		return nil, false, err
	}
	return result.([]ranker.ScoredDoc), false, nil
}

func (c *Cache) recordHit() {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *Cache) recordMiss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *Cache) get(ctx context.Context, key string) ([]ranker.ScoredDoc, bool) {
	raw, err := c.redis.Get(ctx, key)
	if err != nil {
		if !redis.IsNilError(err) {
			c.log.Warn("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var results []ranker.ScoredDoc
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		c.log.Warn("cache entry corrupt, ignoring", "key", key, "error", err)
		return nil, false
	}
	return results, true
}

func (c *Cache) set(ctx context.Context, key string, results []ranker.ScoredDoc) {
	data, err := json.Marshal(results)
	if err != nil {
		c.log.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.redis.Set(ctx, key, string(data), c.ttl); err != nil {
		c.log.Warn("cache set failed", "key", key, "error", err)
	}
}

// Size reports how many query results are currently cached, for health and
// operator tooling.
func (c *Cache) Size(ctx context.Context) (int64, error) {
	return c.redis.CountByPattern(ctx, keyPrefix+"*")
}

// Invalidate flushes every cached query result. Called after an index.built
// event, since a rebuild can change every query's ranking.
func (c *Cache) Invalidate(ctx context.Context) error {
	deleted, err := c.redis.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("querycache: invalidating: %w", err)
	}
	c.log.Info("cache invalidated", "entries_removed", deleted)
	return nil
}
