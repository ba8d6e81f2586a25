package service

import (
	"context"

	"github.com/xxxsen/mreply/internal/ai"
	"github.com/xxxsen/mreply/internal/model"
)

// ExchangeStore is implemented by repo.ExchangeRepo and memstore.ExchangeStore.
type ExchangeStore interface {
	Insert(ctx context.Context, item *model.Exchange) error
	GetByID(ctx context.Context, ownerID, id string) (*model.Exchange, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset uint) ([]model.Exchange, error)
	ListRecentDrafts(ctx context.Context, ownerID string, limit uint) ([]string, error)
	UpdateFinalReply(ctx context.Context, ownerID, id, finalReply, tone string, mtime int64) error
	Delete(ctx context.Context, ownerID, id string) error
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
	QueryNearest(ctx context.Context, ownerID string, vec []float32, threshold float64, limit int) ([]model.ExchangeMatch, error)
}

type ChunkStore interface {
	ReplaceDocument(ctx context.Context, ownerID, documentName string, chunks []model.DocumentChunk) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.DocumentChunk, error)
	ListDocuments(ctx context.Context, ownerID string) ([]model.DocumentSummary, error)
	DeleteByDocument(ctx context.Context, ownerID, documentName string) (int64, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
	QueryNearest(ctx context.Context, ownerID string, vec []float32, threshold float64, limit int) ([]model.ChunkMatch, error)
}

type FingerprintStore interface {
	Get(ctx context.Context, ownerID string) (*model.StyleFingerprint, error)
	Upsert(ctx context.Context, fp *model.StyleFingerprint) error
	Delete(ctx context.Context, ownerID string) error
}

// ReplyWriter is the generation side of the reply flow; ai.Manager
// implements it.
type ReplyWriter interface {
	DraftReply(ctx context.Context, req ai.ReplyRequest) (string, error)
	Retone(ctx context.Context, reply string, tone string) (string, error)
}
