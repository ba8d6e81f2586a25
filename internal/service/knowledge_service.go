package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xxxsen/mreply/internal/ai"
	"github.com/xxxsen/mreply/internal/filestore"
	"github.com/xxxsen/mreply/internal/model"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

const (
	maxDocumentNameRunes = 200
	embedConcurrency     = 4
)

type KnowledgeConfig struct {
	ChunkSize      int
	MaxUploadBytes int64
	Dimensions     int
}

type IngestRequest struct {
	Name        string
	ContentType string
	Content     []byte
}

type PurgeResult struct {
	Documents int   `json:"documents"`
	Chunks    int64 `json:"chunks"`
	Exchanges int64 `json:"exchanges"`
}

// KnowledgeService owns the reference documents an owner uploads: the
// stored original plus its embedded chunks.
type KnowledgeService struct {
	chunks    ChunkStore
	exchanges ExchangeStore
	files     filestore.Store
	chunker   *ai.Chunker
	embedder  ai.IEmbedder
	cfg       KnowledgeConfig
	now       func() time.Time
}

func NewKnowledgeService(chunks ChunkStore, exchanges ExchangeStore, files filestore.Store, embedder ai.IEmbedder, cfg KnowledgeConfig) *KnowledgeService {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 << 20
	}
	return &KnowledgeService{
		chunks:    chunks,
		exchanges: exchanges,
		files:     files,
		chunker:   ai.NewChunker(cfg.ChunkSize),
		embedder:  embedder,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Ingest chunks and embeds a document and replaces any earlier version
// stored under the same name.
func (s *KnowledgeService) Ingest(ctx context.Context, ownerID string, req IngestRequest) (*model.DocumentSummary, error) {
	name, err := cleanDocumentName(req.Name)
	if err != nil {
		return nil, err
	}
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("document is empty: %w", appErr.ErrInvalid)
	}
	if int64(len(req.Content)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("document exceeds %d bytes: %w", s.cfg.MaxUploadBytes, appErr.ErrTooLarge)
	}
	if !utf8.Valid(req.Content) {
		return nil, fmt.Errorf("document is not utf-8 text: %w", appErr.ErrInvalid)
	}
	contentType := detectContentType(name, req.ContentType)
	pieces := s.chunker.Chunk(ctx, string(req.Content), contentType)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("document has no text: %w", appErr.ErrInvalid)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("owner_id", ownerID), zap.String("document", name))

	now := s.now().Unix()
	chunks := make([]model.DocumentChunk, len(pieces))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, piece := range pieces {
		chunks[i] = model.DocumentChunk{
			ID:           newID(),
			OwnerID:      ownerID,
			DocumentName: name,
			ChunkIndex:   piece.Index,
			Content:      piece.Content,
			Metadata: model.ChunkMetadata{
				ChunkLength: utf8.RuneCountInString(piece.Content),
				ProcessedAt: now,
				ContentType: contentType,
				Heading:     piece.Heading,
			},
			Ctime: now,
		}
		g.Go(func() error {
			vec, err := s.embedder.Embed(gctx, embedText(piece), ai.TaskDocument)
			if err == nil {
				err = checkDimensions(vec, s.cfg.Dimensions)
			}
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", piece.Index, err)
			}
			chunks[i].Embedding = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrUpstreamUnavailable, err)
	}

	if err := s.files.Save(ctx, documentKey(ownerID, name), bytes.NewReader(req.Content), int64(len(req.Content))); err != nil {
		return nil, fmt.Errorf("store document: %w: %w", appErr.ErrPersistence, err)
	}
	if err := s.chunks.ReplaceDocument(ctx, ownerID, name, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w: %w", appErr.ErrPersistence, err)
	}
	logger.Info("document ingested", zap.Int("chunks", len(chunks)), zap.Int("bytes", len(req.Content)))
	return &model.DocumentSummary{DocumentName: name, ChunkCount: len(chunks), Ctime: now}, nil
}

func (s *KnowledgeService) ListDocuments(ctx context.Context, ownerID string) ([]model.DocumentSummary, error) {
	return s.chunks.ListDocuments(ctx, ownerID)
}

// ListChunks returns the stored chunks of one document in index order.
func (s *KnowledgeService) ListChunks(ctx context.Context, ownerID, name string) ([]model.DocumentChunk, error) {
	all, err := s.chunks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	chunks := make([]model.DocumentChunk, 0)
	for _, c := range all {
		if c.DocumentName == name {
			chunks = append(chunks, c)
		}
	}
	if len(chunks) == 0 {
		return nil, appErr.ErrNotFound
	}
	return chunks, nil
}

func (s *KnowledgeService) OpenDocument(ctx context.Context, ownerID, name string) (io.ReadCloser, error) {
	rc, err := s.files.Open(ctx, documentKey(ownerID, name))
	if errors.Is(err, filestore.ErrNotExist) {
		return nil, appErr.ErrNotFound
	}
	return rc, err
}

func (s *KnowledgeService) DeleteDocument(ctx context.Context, ownerID, name string) error {
	n, err := s.chunks.DeleteByDocument(ctx, ownerID, name)
	if err != nil {
		return err
	}
	if n == 0 {
		return appErr.ErrNotFound
	}
	s.deleteFile(ctx, ownerID, name)
	return nil
}

// Purge removes every document, chunk and exchange of an owner. The style
// fingerprint is kept; it is managed on its own.
func (s *KnowledgeService) Purge(ctx context.Context, ownerID string) (*PurgeResult, error) {
	docs, err := s.chunks.ListDocuments(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	res := &PurgeResult{Documents: len(docs)}
	if res.Chunks, err = s.chunks.DeleteByOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if res.Exchanges, err = s.exchanges.DeleteByOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		s.deleteFile(ctx, ownerID, doc.DocumentName)
	}
	logutil.GetLogger(ctx).Info("knowledge purged",
		zap.String("owner_id", ownerID),
		zap.Int("documents", res.Documents),
		zap.Int64("chunks", res.Chunks),
		zap.Int64("exchanges", res.Exchanges),
	)
	return res, nil
}

func (s *KnowledgeService) deleteFile(ctx context.Context, ownerID, name string) {
	err := s.files.Delete(ctx, documentKey(ownerID, name))
	if err != nil && !errors.Is(err, filestore.ErrNotExist) {
		logutil.GetLogger(ctx).Warn("delete stored document failed",
			zap.String("owner_id", ownerID), zap.String("document", name), zap.Error(err))
	}
}

func embedText(c ai.Chunk) string {
	if c.Heading == "" {
		return c.Content
	}
	return c.Heading + "\n" + c.Content
}

func cleanDocumentName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("document name is required: %w", appErr.ErrInvalid)
	}
	if utf8.RuneCountInString(name) > maxDocumentNameRunes {
		return "", fmt.Errorf("document name too long: %w", appErr.ErrInvalid)
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("document name has invalid characters: %w", appErr.ErrInvalid)
	}
	return name, nil
}

func detectContentType(name, declared string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return ai.ContentTypeMarkdown
	case ".txt", ".text":
		return ai.ContentTypePlain
	}
	if strings.HasPrefix(strings.ToLower(declared), ai.ContentTypePlain) {
		return ai.ContentTypePlain
	}
	return ai.ContentTypeMarkdown
}
