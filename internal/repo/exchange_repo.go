package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/mreply/internal/model"
	"github.com/xxxsen/mreply/internal/pkg/dbutil"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

var exchangeColumns = []string{
	"id", "owner_id", "screenshot_text", "draft_text", "generated_reply", "final_reply", "tone", "ctime", "mtime",
}

type ExchangeRepo struct {
	db *sql.DB
}

func NewExchangeRepo(db *sql.DB) *ExchangeRepo {
	return &ExchangeRepo{db: db}
}

func (r *ExchangeRepo) Insert(ctx context.Context, item *model.Exchange) error {
	data := map[string]interface{}{
		"id":              item.ID,
		"owner_id":        item.OwnerID,
		"screenshot_text": item.ScreenshotText,
		"draft_text":      item.DraftText,
		"generated_reply": item.GeneratedReply,
		"final_reply":     item.FinalReply,
		"tone":            item.Tone,
		"embedding":       pgvector.NewVector(item.Embedding),
		"ctime":           item.Ctime,
		"mtime":           item.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("exchanges", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ExchangeRepo) GetByID(ctx context.Context, ownerID, id string) (*model.Exchange, error) {
	where := map[string]interface{}{
		"id":       id,
		"owner_id": ownerID,
	}
	sqlStr, args, err := builder.BuildSelect("exchanges", where, exchangeColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var item model.Exchange
	if err := scanExchange(r.db.QueryRowContext(ctx, sqlStr, args...), &item); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ListByOwner pages through an owner's exchanges, newest first.
func (r *ExchangeRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset uint) ([]model.Exchange, error) {
	where := map[string]interface{}{
		"owner_id": ownerID,
		"_orderby": "ctime desc, id desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("exchanges", where, exchangeColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Exchange, 0)
	for rows.Next() {
		var item model.Exchange
		if err := scanExchange(rows, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *ExchangeRepo) ListRecentDrafts(ctx context.Context, ownerID string, limit uint) ([]string, error) {
	where := map[string]interface{}{
		"owner_id":      ownerID,
		"draft_text <>": "",
		"_orderby":      "ctime desc, id desc",
		"_limit":        []uint{0, limit},
	}
	sqlStr, args, err := builder.BuildSelect("exchanges", where, []string{"draft_text"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drafts := make([]string, 0, limit)
	for rows.Next() {
		var draft string
		if err := rows.Scan(&draft); err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}

// UpdateFinalReply changes the finalized reply and tone; every other
// column is immutable once written.
func (r *ExchangeRepo) UpdateFinalReply(ctx context.Context, ownerID, id, finalReply, tone string, mtime int64) error {
	where := map[string]interface{}{
		"id":       id,
		"owner_id": ownerID,
	}
	update := map[string]interface{}{
		"final_reply": finalReply,
		"tone":        tone,
		"mtime":       mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("exchanges", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return execAffectOne(ctx, r.db, sqlStr, args)
}

func (r *ExchangeRepo) Delete(ctx context.Context, ownerID, id string) error {
	sqlStr, args, err := builder.BuildDelete("exchanges", map[string]interface{}{
		"id":       id,
		"owner_id": ownerID,
	})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return execAffectOne(ctx, r.db, sqlStr, args)
}

func (r *ExchangeRepo) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	sqlStr, args, err := builder.BuildDelete("exchanges", map[string]interface{}{
		"owner_id": ownerID,
	})
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

func (r *ExchangeRepo) QueryNearest(ctx context.Context, ownerID string, vec []float32, threshold float64, limit int) ([]model.ExchangeMatch, error) {
	const query = `
		SELECT id, owner_id, screenshot_text, draft_text, generated_reply, final_reply, tone, ctime, mtime,
			1 - (embedding <=> $2) AS similarity
		FROM exchanges
		WHERE owner_id = $1 AND 1 - (embedding <=> $2) > $3
		ORDER BY similarity DESC, ctime DESC
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, pgvector.NewVector(vec), threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]model.ExchangeMatch, 0, limit)
	for rows.Next() {
		var m model.ExchangeMatch
		e := &m.Record
		if err := rows.Scan(
			&e.ID, &e.OwnerID, &e.ScreenshotText, &e.DraftText, &e.GeneratedReply,
			&e.FinalReply, &e.Tone, &e.Ctime, &e.Mtime, &m.Similarity,
		); err != nil {
			return nil, err
		}
		m.Similarity = clampSimilarity(m.Similarity)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExchange(row rowScanner, item *model.Exchange) error {
	return row.Scan(
		&item.ID, &item.OwnerID, &item.ScreenshotText, &item.DraftText, &item.GeneratedReply,
		&item.FinalReply, &item.Tone, &item.Ctime, &item.Mtime,
	)
}

func execAffectOne(ctx context.Context, db *sql.DB, sqlStr string, args []interface{}) error {
	result, err := db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func clampSimilarity(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
