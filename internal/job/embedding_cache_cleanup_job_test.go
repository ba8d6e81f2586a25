package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/mreply/internal/model"
	"github.com/xxxsen/mreply/internal/repo/memstore"
)

type failingCleaner struct{}

func (failingCleaner) DeleteBefore(context.Context, int64) (int64, error) {
	return 0, errors.New("db down")
}

func TestEmbeddingCacheCleanupJob(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := memstore.NewEmbeddingCacheStore()
	require.NoError(t, store.Save(ctx, &model.EmbeddingCache{ModelName: "m", TaskType: "query", ContentHash: "old", Embedding: []float32{1}, Ctime: now.AddDate(0, 0, -8).Unix()}))
	require.NoError(t, store.Save(ctx, &model.EmbeddingCache{ModelName: "m", TaskType: "query", ContentHash: "new", Embedding: []float32{1}, Ctime: now.AddDate(0, 0, -1).Unix()}))

	j := NewEmbeddingCacheCleanupJob(store, 7)
	j.now = func() time.Time { return now }
	require.Equal(t, "embedding_cache_cleanup", j.Name())
	require.NoError(t, j.Run(ctx))

	_, ok, err := store.Get(ctx, "m", "query", "old")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = store.Get(ctx, "m", "query", "new")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEmbeddingCacheCleanupJobDefaultsAndErrors(t *testing.T) {
	require.Equal(t, defaultMaxAgeDays, NewEmbeddingCacheCleanupJob(nil, 0).maxAgeDays)
	require.NoError(t, NewEmbeddingCacheCleanupJob(nil, 3).Run(context.Background()))
	require.Error(t, NewEmbeddingCacheCleanupJob(failingCleaner{}, 3).Run(context.Background()))
}
