package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/mreply/internal/model"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
	"github.com/xxxsen/mreply/internal/repo/memstore"
)

func TestExchangeService(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewExchangeStore()
	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Insert(ctx, &model.Exchange{
			ID: fmt.Sprintf("e%d", i), OwnerID: "u1", DraftText: "draft", GeneratedReply: "gen",
			Embedding: []float32{1, 0}, Ctime: int64(i), Mtime: int64(i),
		}))
	}
	svc := NewExchangeService(store)

	page, err := svc.List(ctx, "u1", 2, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"e3", "e2"}, []string{page[0].ID, page[1].ID})
	all, err := svc.List(ctx, "u1", 0, 1000)
	require.NoError(t, err)
	require.Len(t, all, 5)

	_, err = svc.Finalize(ctx, "u1", "e1", "  ", "warm")
	require.ErrorIs(t, err, appErr.ErrInvalid)
	updated, err := svc.Finalize(ctx, "u1", "e1", " Sent this instead ", " warm ")
	require.NoError(t, err)
	require.Equal(t, "Sent this instead", updated.FinalReply)
	require.Equal(t, "warm", updated.Tone)
	require.Equal(t, "gen", updated.GeneratedReply)
	_, err = svc.Finalize(ctx, "u2", "e1", "x", "")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	got, err := svc.Get(ctx, "u1", "e1")
	require.NoError(t, err)
	require.Equal(t, "Sent this instead", got.FinalReply)

	require.NoError(t, svc.Delete(ctx, "u1", "e1"))
	_, err = svc.Get(ctx, "u1", "e1")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	n, err := svc.DeleteAll(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
}
