package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xxxsen/mreply/internal/ai"
	"github.com/xxxsen/mreply/internal/model"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

// BranchStatus tells "nothing matched" apart from "could not look".
type BranchStatus string

const (
	BranchOK          BranchStatus = "ok"
	BranchEmpty       BranchStatus = "empty"
	BranchUnavailable BranchStatus = "unavailable"
	BranchSkipped     BranchStatus = "skipped"
)

const (
	DefaultThreshold     = 0.1
	DefaultExchangeLimit = 3
	DefaultDocumentLimit = 2
	DefaultBranchTimeout = 5 * time.Second
)

type RetrievalConfig struct {
	// Threshold is the minimum similarity. Nil means DefaultThreshold; an
	// explicit zero keeps every positively correlated match.
	Threshold     *float64
	ExchangeLimit int
	DocumentLimit int
	Timeout       time.Duration
	// Dimensions is the vector size every stored embedding has. Zero
	// skips the check.
	Dimensions int
}

type RetrievalRequest struct {
	OwnerID        string
	ScreenshotText string
	DraftText      string
	Threshold      *float64
	ExchangeLimit  int
	DocumentLimit  int
}

type RetrievalResult struct {
	Exchanges      []model.ExchangeMatch `json:"exchanges"`
	Documents      []model.ChunkMatch    `json:"documents"`
	ExchangeStatus BranchStatus          `json:"exchange_status"`
	DocumentStatus BranchStatus          `json:"document_status"`
	// QueryEmbedding is handed to the recorder so the exchange is stored
	// under the vector it was retrieved with.
	QueryEmbedding []float32 `json:"-"`
}

type RetrievalService struct {
	exchanges ExchangeStore
	chunks    ChunkStore
	embedder  ai.IEmbedder
	cfg       RetrievalConfig
}

func NewRetrievalService(exchanges ExchangeStore, chunks ChunkStore, embedder ai.IEmbedder, cfg RetrievalConfig) *RetrievalService {
	if cfg.Threshold == nil {
		cfg.Threshold = ptrTo(DefaultThreshold)
	}
	if cfg.ExchangeLimit <= 0 {
		cfg.ExchangeLimit = DefaultExchangeLimit
	}
	if cfg.DocumentLimit <= 0 {
		cfg.DocumentLimit = DefaultDocumentLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBranchTimeout
	}
	return &RetrievalService{exchanges: exchanges, chunks: chunks, embedder: embedder, cfg: cfg}
}

// Retrieve never fails. Each branch that cannot be served degrades to an
// empty list with BranchUnavailable so the reply can still be drafted.
func (s *RetrievalService) Retrieve(ctx context.Context, req RetrievalRequest) *RetrievalResult {
	req = s.withDefaults(req)
	logger := logutil.GetLogger(ctx).With(zap.String("owner_id", req.OwnerID))
	res := &RetrievalResult{ExchangeStatus: BranchUnavailable, DocumentStatus: BranchUnavailable}

	query := model.JoinQuery(req.ScreenshotText, req.DraftText)
	if query == "" {
		res.ExchangeStatus, res.DocumentStatus = BranchEmpty, BranchEmpty
		return res
	}
	if s.embedder == nil {
		logger.Warn("retrieval skipped, no embedder configured")
		return res
	}
	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	vec, err := s.embedder.Embed(embedCtx, query, ai.TaskQuery)
	cancel()
	if err == nil {
		err = checkDimensions(vec, s.cfg.Dimensions)
	}
	if err != nil {
		logger.Warn("embed retrieval query failed, using style only", zap.Error(err))
		return res
	}
	res.QueryEmbedding = vec

	var g errgroup.Group
	g.Go(func() error {
		branchCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
		items, err := s.exchanges.QueryNearest(branchCtx, req.OwnerID, vec, *req.Threshold, req.ExchangeLimit)
		if err != nil {
			logger.Warn("exchange retrieval unavailable", zap.Error(err))
			return nil
		}
		res.Exchanges = rankMatches(items, exchangeCtime, req.ExchangeLimit)
		res.ExchangeStatus = statusOf(len(res.Exchanges))
		return nil
	})
	g.Go(func() error {
		branchCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
		items, err := s.chunks.QueryNearest(branchCtx, req.OwnerID, vec, *req.Threshold, req.DocumentLimit)
		if err != nil {
			logger.Warn("document retrieval unavailable", zap.Error(err))
			return nil
		}
		res.Documents = rankMatches(items, chunkCtime, req.DocumentLimit)
		res.DocumentStatus = statusOf(len(res.Documents))
		return nil
	})
	_ = g.Wait()

	logger.Debug("retrieval finished",
		zap.String("exchange_status", string(res.ExchangeStatus)),
		zap.Int("exchanges", len(res.Exchanges)),
		zap.String("document_status", string(res.DocumentStatus)),
		zap.Int("documents", len(res.Documents)),
	)
	return res
}

// Reuse serves a regenerate: the matches of the previous context are kept
// and no store is queried.
func (s *RetrievalService) Reuse(prev *model.AssembledContext) *RetrievalResult {
	res := &RetrievalResult{ExchangeStatus: BranchSkipped, DocumentStatus: BranchSkipped}
	if prev == nil {
		return res
	}
	res.Exchanges = rankMatches(prev.Exchanges, exchangeCtime, s.cfg.ExchangeLimit)
	res.Documents = rankMatches(prev.Documents, chunkCtime, s.cfg.DocumentLimit)
	return res
}

func (s *RetrievalService) withDefaults(req RetrievalRequest) RetrievalRequest {
	if req.Threshold == nil {
		req.Threshold = s.cfg.Threshold
	}
	if req.ExchangeLimit <= 0 {
		req.ExchangeLimit = s.cfg.ExchangeLimit
	}
	if req.DocumentLimit <= 0 {
		req.DocumentLimit = s.cfg.DocumentLimit
	}
	return req
}

// checkDimensions rejects vectors that cannot share an index with the
// stored ones, such as those of a fallback model with another size.
func checkDimensions(vec []float32, want int) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty embedding: %w", appErr.ErrUpstreamUnavailable)
	}
	if want > 0 && len(vec) != want {
		return fmt.Errorf("embedding has %d dimensions, want %d: %w", len(vec), want, appErr.ErrUpstreamUnavailable)
	}
	return nil
}

func ptrTo[T any](v T) *T {
	return &v
}

func statusOf(n int) BranchStatus {
	if n == 0 {
		return BranchEmpty
	}
	return BranchOK
}

func exchangeCtime(e model.Exchange) int64 { return e.Ctime }

func chunkCtime(c model.DocumentChunk) int64 { return c.Ctime }

// rankMatches orders by similarity descending with newer records first on
// exact ties, then keeps at most limit items. It never aliases items.
func rankMatches[T any](items []model.RetrievedMatch[T], ctime func(T) int64, limit int) []model.RetrievedMatch[T] {
	if len(items) == 0 || limit <= 0 {
		return nil
	}
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b model.RetrievedMatch[T]) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(ctime(b.Record), ctime(a.Record))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
