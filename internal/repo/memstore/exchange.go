package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/xxxsen/mreply/internal/model"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

// ExchangeStore keeps exchanges in process memory. It backs the "memory"
// database driver and the service tests.
type ExchangeStore struct {
	mu    sync.RWMutex
	items map[string]model.Exchange
}

func NewExchangeStore() *ExchangeStore {
	return &ExchangeStore{items: make(map[string]model.Exchange)}
}

func (s *ExchangeStore) Insert(_ context.Context, item *model.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; ok {
		return appErr.ErrConflict
	}
	stored := *item
	stored.Embedding = slices.Clone(item.Embedding)
	s.items[item.ID] = stored
	return nil
}

func (s *ExchangeStore) GetByID(_ context.Context, ownerID, id string) (*model.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok || item.OwnerID != ownerID {
		return nil, appErr.ErrNotFound
	}
	item.Embedding = nil
	return &item, nil
}

func (s *ExchangeStore) ListByOwner(_ context.Context, ownerID string, limit, offset uint) ([]model.Exchange, error) {
	items := s.sortedByOwner(ownerID)
	if offset >= uint(len(items)) {
		return []model.Exchange{}, nil
	}
	items = items[offset:]
	if limit > 0 && uint(len(items)) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *ExchangeStore) ListRecentDrafts(_ context.Context, ownerID string, limit uint) ([]string, error) {
	drafts := make([]string, 0, limit)
	for _, item := range s.sortedByOwner(ownerID) {
		if uint(len(drafts)) >= limit {
			break
		}
		if item.DraftText == "" {
			continue
		}
		drafts = append(drafts, item.DraftText)
	}
	return drafts, nil
}

func (s *ExchangeStore) UpdateFinalReply(_ context.Context, ownerID, id, finalReply, tone string, mtime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.OwnerID != ownerID {
		return appErr.ErrNotFound
	}
	item.FinalReply = finalReply
	item.Tone = tone
	item.Mtime = mtime
	s.items[id] = item
	return nil
}

func (s *ExchangeStore) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.OwnerID != ownerID {
		return appErr.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *ExchangeStore) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, item := range s.items {
		if item.OwnerID == ownerID {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

func (s *ExchangeStore) QueryNearest(ctx context.Context, ownerID string, vec []float32, threshold float64, limit int) ([]model.ExchangeMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	owned := make([]model.Exchange, 0, len(s.items))
	for _, item := range s.items {
		if item.OwnerID == ownerID {
			owned = append(owned, item)
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(owned, func(a, b model.Exchange) int { return strings.Compare(a.ID, b.ID) })
	matches := nearest(owned, vec, threshold, limit,
		func(e model.Exchange) []float32 { return e.Embedding },
		func(e model.Exchange) int64 { return e.Ctime },
	)
	for i := range matches {
		matches[i].Record.Embedding = nil
	}
	return matches, nil
}

func (s *ExchangeStore) sortedByOwner(ownerID string) []model.Exchange {
	s.mu.RLock()
	items := make([]model.Exchange, 0)
	for _, item := range s.items {
		if item.OwnerID == ownerID {
			item.Embedding = nil
			items = append(items, item)
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(items, func(a, b model.Exchange) int {
		if c := cmp.Compare(b.Ctime, a.Ctime); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return items
}
