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

type ChunkStore struct {
	mu     sync.RWMutex
	chunks []model.DocumentChunk
}

func NewChunkStore() *ChunkStore {
	return &ChunkStore{}
}

func (s *ChunkStore) ReplaceDocument(_ context.Context, ownerID, documentName string, chunks []model.DocumentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chunks[:0:0]
	for _, c := range s.chunks {
		if c.OwnerID == ownerID && c.DocumentName == documentName {
			continue
		}
		kept = append(kept, c)
	}
	prev := s.chunks
	s.chunks = kept
	if err := s.insertLocked(chunks); err != nil {
		s.chunks = prev
		return err
	}
	return nil
}

func (s *ChunkStore) insertLocked(chunks []model.DocumentChunk) error {
	for _, c := range chunks {
		for _, existing := range s.chunks {
			if existing.ID == c.ID || (existing.OwnerID == c.OwnerID && existing.DocumentName == c.DocumentName && existing.ChunkIndex == c.ChunkIndex) {
				return appErr.ErrConflict
			}
		}
	}
	for _, c := range chunks {
		c.Embedding = slices.Clone(c.Embedding)
		s.chunks = append(s.chunks, c)
	}
	return nil
}

func (s *ChunkStore) ListByOwner(_ context.Context, ownerID string) ([]model.DocumentChunk, error) {
	s.mu.RLock()
	items := make([]model.DocumentChunk, 0)
	for _, c := range s.chunks {
		if c.OwnerID == ownerID {
			c.Embedding = nil
			items = append(items, c)
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(items, func(a, b model.DocumentChunk) int {
		if c := strings.Compare(a.DocumentName, b.DocumentName); c != 0 {
			return c
		}
		return cmp.Compare(a.ChunkIndex, b.ChunkIndex)
	})
	return items, nil
}

func (s *ChunkStore) ListDocuments(ctx context.Context, ownerID string) ([]model.DocumentSummary, error) {
	chunks, err := s.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	docs := make([]model.DocumentSummary, 0)
	for _, c := range chunks {
		if n := len(docs); n > 0 && docs[n-1].DocumentName == c.DocumentName {
			docs[n-1].ChunkCount++
			docs[n-1].Ctime = min(docs[n-1].Ctime, c.Ctime)
			continue
		}
		docs = append(docs, model.DocumentSummary{DocumentName: c.DocumentName, ChunkCount: 1, Ctime: c.Ctime})
	}
	return docs, nil
}

func (s *ChunkStore) DeleteByDocument(_ context.Context, ownerID, documentName string) (int64, error) {
	return s.deleteWhere(func(c model.DocumentChunk) bool {
		return c.OwnerID == ownerID && c.DocumentName == documentName
	}), nil
}

func (s *ChunkStore) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	return s.deleteWhere(func(c model.DocumentChunk) bool {
		return c.OwnerID == ownerID
	}), nil
}

func (s *ChunkStore) deleteWhere(match func(model.DocumentChunk) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chunks[:0:0]
	var n int64
	for _, c := range s.chunks {
		if match(c) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return n
}

func (s *ChunkStore) QueryNearest(ctx context.Context, ownerID string, vec []float32, threshold float64, limit int) ([]model.ChunkMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	owned := make([]model.DocumentChunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		if c.OwnerID == ownerID {
			owned = append(owned, c)
		}
	}
	s.mu.RUnlock()
	matches := nearest(owned, vec, threshold, limit,
		func(c model.DocumentChunk) []float32 { return c.Embedding },
		func(c model.DocumentChunk) int64 { return c.Ctime },
	)
	for i := range matches {
		matches[i].Record.Embedding = nil
	}
	return matches, nil
}
