package embedcache

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/mreply/internal/ai"
	"go.uber.org/zap"
)

type QueryCacheOptions struct {
	Size int
	TTL  time.Duration
	// TaskTypes lists the task types worth holding in memory. Empty means
	// ai.TaskQuery only: a regenerate or a repeated conversation embeds the
	// same screenshot and draft again, while document chunks are embedded
	// once per ingest and would only evict those.
	TaskTypes []string
}

type CacheStats struct {
	Hits   uint64
	Misses uint64
	Len    int
}

// QueryCache keeps recently embedded conversation queries in memory.
type QueryCache struct {
	next      ai.IEmbedder
	cache     *expirable.LRU[string, []float32]
	taskTypes []string
	hits      atomic.Uint64
	misses    atomic.Uint64
}

// NewQueryCache returns nil when the cache is disabled by size or ttl.
func NewQueryCache(next ai.IEmbedder, opts QueryCacheOptions) *QueryCache {
	if next == nil || opts.Size <= 0 || opts.TTL <= 0 {
		return nil
	}
	taskTypes := opts.TaskTypes
	if len(taskTypes) == 0 {
		taskTypes = []string{ai.TaskQuery}
	}
	return &QueryCache{
		next:      next,
		cache:     expirable.NewLRU[string, []float32](opts.Size, nil, opts.TTL),
		taskTypes: slices.Clone(taskTypes),
	}
}

func (q *QueryCache) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if !slices.Contains(q.taskTypes, taskType) {
		return q.next.Embed(ctx, text, taskType)
	}
	key, _, _ := buildCacheKey(q.next.ModelName(), taskType, text)
	if cached, ok := q.cache.Get(key); ok {
		q.hits.Add(1)
		logutil.GetLogger(ctx).Debug("query embedding cache hit", zap.String("task_type", taskType))
		return slices.Clone(cached), nil
	}
	q.misses.Add(1)
	res, err := q.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if len(res) > 0 {
		q.cache.Add(key, slices.Clone(res))
	}
	return res, nil
}

func (q *QueryCache) ModelName() string {
	return q.next.ModelName()
}

func (q *QueryCache) Stats() CacheStats {
	return CacheStats{Hits: q.hits.Load(), Misses: q.misses.Load(), Len: q.cache.Len()}
}
