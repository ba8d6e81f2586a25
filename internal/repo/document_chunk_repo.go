package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/mreply/internal/model"
	"github.com/xxxsen/mreply/internal/pkg/dbutil"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

var chunkColumns = []string{
	"id", "owner_id", "document_name", "chunk_index", "content", "metadata", "ctime",
}

type DocumentChunkRepo struct {
	db *sql.DB
}

func NewDocumentChunkRepo(db *sql.DB) *DocumentChunkRepo {
	return &DocumentChunkRepo{db: db}
}

// ReplaceDocument swaps every chunk of one document in a single
// transaction, so readers never see a half ingested document.
func (r *DocumentChunkRepo) ReplaceDocument(ctx context.Context, ownerID, documentName string, chunks []model.DocumentChunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	sqlStr, args, err := builder.BuildDelete("document_chunks", map[string]interface{}{
		"owner_id":      ownerID,
		"document_name": documentName,
	})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	if len(chunks) > 0 {
		if err := insertChunks(ctx, tx, chunks); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertChunks(ctx context.Context, db execer, chunks []model.DocumentChunk) error {
	data := make([]map[string]interface{}, 0, len(chunks))
	for _, c := range chunks {
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("encode chunk metadata: %w", err)
		}
		data = append(data, map[string]interface{}{
			"id":            c.ID,
			"owner_id":      c.OwnerID,
			"document_name": c.DocumentName,
			"chunk_index":   c.ChunkIndex,
			"content":       c.Content,
			"embedding":     pgvector.NewVector(c.Embedding),
			"metadata":      string(meta),
			"ctime":         c.Ctime,
		})
	}
	sqlStr, args, err := builder.BuildInsert("document_chunks", data)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

// ListByOwner returns an owner's chunks without embeddings, ordered by
// document name and chunk index.
func (r *DocumentChunkRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.DocumentChunk, error) {
	where := map[string]interface{}{
		"owner_id": ownerID,
		"_orderby": "document_name asc, chunk_index asc",
	}
	sqlStr, args, err := builder.BuildSelect("document_chunks", where, chunkColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentChunk, 0)
	for rows.Next() {
		var item model.DocumentChunk
		var meta []byte
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.DocumentName, &item.ChunkIndex, &item.Content, &meta, &item.Ctime,
		); err != nil {
			return nil, err
		}
		if err := dbutil.DecodeJSONB(meta, &item.Metadata); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *DocumentChunkRepo) ListDocuments(ctx context.Context, ownerID string) ([]model.DocumentSummary, error) {
	const query = `
		SELECT document_name, COUNT(*), MIN(ctime)
		FROM document_chunks
		WHERE owner_id = $1
		GROUP BY document_name
		ORDER BY document_name ASC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentSummary, 0)
	for rows.Next() {
		var item model.DocumentSummary
		if err := rows.Scan(&item.DocumentName, &item.ChunkCount, &item.Ctime); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *DocumentChunkRepo) DeleteByDocument(ctx context.Context, ownerID, documentName string) (int64, error) {
	return r.deleteWhere(ctx, map[string]interface{}{
		"owner_id":      ownerID,
		"document_name": documentName,
	})
}

func (r *DocumentChunkRepo) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	return r.deleteWhere(ctx, map[string]interface{}{
		"owner_id": ownerID,
	})
}

func (r *DocumentChunkRepo) deleteWhere(ctx context.Context, where map[string]interface{}) (int64, error) {
	sqlStr, args, err := builder.BuildDelete("document_chunks", where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *DocumentChunkRepo) QueryNearest(ctx context.Context, ownerID string, vec []float32, threshold float64, limit int) ([]model.ChunkMatch, error) {
	const query = `
		SELECT id, owner_id, document_name, chunk_index, content, metadata, ctime,
			1 - (embedding <=> $2) AS similarity
		FROM document_chunks
		WHERE owner_id = $1 AND 1 - (embedding <=> $2) > $3
		ORDER BY similarity DESC, ctime DESC
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, pgvector.NewVector(vec), threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]model.ChunkMatch, 0, limit)
	for rows.Next() {
		var m model.ChunkMatch
		c := &m.Record
		var meta []byte
		if err := rows.Scan(
			&c.ID, &c.OwnerID, &c.DocumentName, &c.ChunkIndex, &c.Content, &meta, &c.Ctime, &m.Similarity,
		); err != nil {
			return nil, err
		}
		if err := dbutil.DecodeJSONB(meta, &c.Metadata); err != nil {
			return nil, err
		}
		m.Similarity = clampSimilarity(m.Similarity)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
