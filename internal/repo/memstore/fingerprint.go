package memstore

import (
	"context"
	"sync"

	"github.com/xxxsen/mreply/internal/model"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

type FingerprintStore struct {
	mu    sync.Mutex
	items map[string]*model.StyleFingerprint
}

func NewFingerprintStore() *FingerprintStore {
	return &FingerprintStore{items: make(map[string]*model.StyleFingerprint)}
}

func (s *FingerprintStore) Get(_ context.Context, ownerID string) (*model.StyleFingerprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fp, ok := s.items[ownerID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return fp.Clone(), nil
}

func (s *FingerprintStore) Upsert(_ context.Context, fp *model.StyleFingerprint) error {
	if err := fp.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := fp.Clone()
	if prev, ok := s.items[fp.OwnerID]; ok {
		stored.Ctime = prev.Ctime
	}
	s.items[fp.OwnerID] = stored
	return nil
}

func (s *FingerprintStore) Delete(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[ownerID]; !ok {
		return appErr.ErrNotFound
	}
	delete(s.items, ownerID)
	return nil
}
