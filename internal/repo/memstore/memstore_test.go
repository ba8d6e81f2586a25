package memstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xxxsen/mreply/internal/model"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

func TestExchangeStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewExchangeStore()
	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Insert(ctx, &model.Exchange{
			ID: fmt.Sprintf("e%d", i), OwnerID: "u1", DraftText: fmt.Sprintf("draft %d", i),
			Embedding: []float32{1, 0}, Ctime: int64(i), Mtime: int64(i),
		}))
	}
	require.NoError(t, store.Insert(ctx, &model.Exchange{ID: "other", OwnerID: "u2", Ctime: 9}))
	require.ErrorIs(t, store.Insert(ctx, &model.Exchange{ID: "e1", OwnerID: "u1"}), appErr.ErrConflict)

	page, err := store.ListByOwner(ctx, "u1", 2, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"e3", "e2"}, exchangeIDs(page))
	page, err = store.ListByOwner(ctx, "u1", 2, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"e1"}, exchangeIDs(page))

	drafts, err := store.ListRecentDrafts(ctx, "u1", 2)
	require.NoError(t, err)
	require.Equal(t, []string{"draft 3", "draft 2"}, drafts)

	require.NoError(t, store.UpdateFinalReply(ctx, "u1", "e2", "final", "warm", 10))
	got, err := store.GetByID(ctx, "u1", "e2")
	require.NoError(t, err)
	require.Equal(t, "final", got.FinalReply)
	require.Equal(t, "warm", got.Tone)
	require.Equal(t, "draft 2", got.DraftText)
	require.Nil(t, got.Embedding)

	_, err = store.GetByID(ctx, "u2", "e2")
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.ErrorIs(t, store.UpdateFinalReply(ctx, "u2", "e2", "x", "", 1), appErr.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "u1", "e1"))
	require.ErrorIs(t, store.Delete(ctx, "u1", "e1"), appErr.ErrNotFound)
	n, err := store.DeleteByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	_, err = store.GetByID(ctx, "u2", "other")
	require.NoError(t, err)
}

func TestExchangeStoreQueryNearestOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewExchangeStore()
	insert := func(id string, vec []float32, ctime int64) {
		require.NoError(t, store.Insert(ctx, &model.Exchange{ID: id, OwnerID: "u1", Embedding: vec, Ctime: ctime}))
	}
	insert("old-exact", []float32{1, 0}, 1)
	insert("new-exact", []float32{2, 0}, 5)
	insert("near", []float32{1, 1}, 9)
	insert("opposite", []float32{-1, 0}, 9)
	require.NoError(t, store.Insert(ctx, &model.Exchange{ID: "foreign", OwnerID: "u2", Embedding: []float32{1, 0}, Ctime: 9}))

	matches, err := store.QueryNearest(ctx, "u1", []float32{1, 0}, 0.1, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	require.Equal(t, "new-exact", matches[0].Record.ID)
	require.Equal(t, "old-exact", matches[1].Record.ID)
	require.Equal(t, "near", matches[2].Record.ID)
	require.InDelta(t, 0.7071, matches[2].Similarity, 1e-4)

	matches, err = store.QueryNearest(ctx, "u1", []float32{1, 0}, 0.1, 0)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestQueryNearestSortedProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		store := NewChunkStore()
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		chunks := make([]model.DocumentChunk, 0, n)
		for i := 0; i < n; i++ {
			chunks = append(chunks, model.DocumentChunk{
				ID: fmt.Sprintf("c%d", i), OwnerID: "u1", DocumentName: "doc", ChunkIndex: i,
				Embedding: []float32{
					float32(rapid.IntRange(-3, 3).Draw(rt, "x")),
					float32(rapid.IntRange(-3, 3).Draw(rt, "y")),
				},
				Ctime: int64(rapid.IntRange(0, 4).Draw(rt, "ctime")),
			})
		}
		require.NoError(rt, store.ReplaceDocument(ctx, "u1", "doc", chunks))
		k := rapid.IntRange(1, 5).Draw(rt, "k")
		matches, err := store.QueryNearest(ctx, "u1", []float32{1, 1}, 0.1, k)
		require.NoError(rt, err)
		require.LessOrEqual(rt, len(matches), k)
		for i, m := range matches {
			require.Greater(rt, m.Similarity, 0.1)
			require.LessOrEqual(rt, m.Similarity, 1.0)
			if i == 0 {
				continue
			}
			prev := matches[i-1]
			require.GreaterOrEqual(rt, prev.Similarity, m.Similarity)
			if prev.Similarity == m.Similarity {
				require.GreaterOrEqual(rt, prev.Record.Ctime, m.Record.Ctime)
			}
		}
	})
}

func TestChunkStore(t *testing.T) {
	ctx := context.Background()
	store := NewChunkStore()
	mk := func(id, doc string, idx int) model.DocumentChunk {
		return model.DocumentChunk{ID: id, OwnerID: "u1", DocumentName: doc, ChunkIndex: idx, Embedding: []float32{1}, Ctime: 1}
	}
	require.NoError(t, store.ReplaceDocument(ctx, "u1", "a.md", []model.DocumentChunk{mk("a0", "a.md", 0), mk("a1", "a.md", 1)}))
	require.NoError(t, store.ReplaceDocument(ctx, "u1", "b.md", []model.DocumentChunk{mk("b0", "b.md", 0)}))
	require.ErrorIs(t, store.ReplaceDocument(ctx, "u1", "a.md", []model.DocumentChunk{mk("b0", "a.md", 0)}), appErr.ErrConflict)

	docs, err := store.ListDocuments(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []model.DocumentSummary{
		{DocumentName: "a.md", ChunkCount: 2, Ctime: 1},
		{DocumentName: "b.md", ChunkCount: 1, Ctime: 1},
	}, docs)

	require.NoError(t, store.ReplaceDocument(ctx, "u1", "a.md", []model.DocumentChunk{mk("a0v2", "a.md", 0)}))
	list, err := store.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a0v2", list[0].ID)

	n, err := store.DeleteByDocument(ctx, "u1", "b.md")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	n, err = store.DeleteByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestFingerprintStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewFingerprintStore()
	_, err := store.Get(ctx, "u1")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	fp := &model.StyleFingerprint{OwnerID: "u1", Topics: []string{"thanks"}, Ctime: 1, Mtime: 1}
	require.NoError(t, store.Upsert(ctx, fp))
	fp.Topics[0] = "mutated"
	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"thanks"}, got.Topics)

	require.NoError(t, store.Upsert(ctx, &model.StyleFingerprint{OwnerID: "u1", Topics: []string{"coffee"}, Ctime: 5, Mtime: 5}))
	got, err = store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"coffee"}, got.Topics)
	require.Equal(t, int64(1), got.Ctime)
	require.Equal(t, int64(5), got.Mtime)

	require.ErrorIs(t, store.Upsert(ctx, &model.StyleFingerprint{OwnerID: "u1", Topics: []string{"a", "a"}}), appErr.ErrInvalid)
}

func TestEmbeddingCacheStore(t *testing.T) {
	ctx := context.Background()
	store := NewEmbeddingCacheStore()
	require.NoError(t, store.Save(ctx, &model.EmbeddingCache{ModelName: "m", TaskType: "t", ContentHash: "h", Embedding: []float32{1}, Ctime: 10}))
	vec, ok, err := store.Get(ctx, "m", "t", "h")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float32{1}, vec)
	n, err := store.DeleteBefore(ctx, 11)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	_, ok, err = store.Get(ctx, "m", "t", "h")
	require.NoError(t, err)
	require.False(t, ok)
}

func exchangeIDs(items []model.Exchange) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}
