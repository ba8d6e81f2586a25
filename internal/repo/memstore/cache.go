package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/xxxsen/mreply/internal/model"
)

type cacheKey struct {
	model, task, hash string
}

type EmbeddingCacheStore struct {
	mu    sync.RWMutex
	items map[cacheKey]model.EmbeddingCache
}

func NewEmbeddingCacheStore() *EmbeddingCacheStore {
	return &EmbeddingCacheStore{items: make(map[cacheKey]model.EmbeddingCache)}
}

func (s *EmbeddingCacheStore) Get(_ context.Context, modelName, taskType, contentHash string) ([]float32, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[cacheKey{modelName, taskType, contentHash}]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(item.Embedding), true, nil
}

func (s *EmbeddingCacheStore) Save(_ context.Context, item *model.EmbeddingCache) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *item
	stored.Embedding = slices.Clone(item.Embedding)
	s.items[cacheKey{item.ModelName, item.TaskType, item.ContentHash}] = stored
	return nil
}

func (s *EmbeddingCacheStore) DeleteBefore(_ context.Context, cutoff int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, item := range s.items {
		if item.Ctime < cutoff {
			delete(s.items, k)
			n++
		}
	}
	return n, nil
}
