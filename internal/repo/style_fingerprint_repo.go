package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/mreply/internal/model"
	"github.com/xxxsen/mreply/internal/pkg/dbutil"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

type StyleFingerprintRepo struct {
	db *sql.DB
}

func NewStyleFingerprintRepo(db *sql.DB) *StyleFingerprintRepo {
	return &StyleFingerprintRepo{db: db}
}

func (r *StyleFingerprintRepo) Get(ctx context.Context, ownerID string) (*model.StyleFingerprint, error) {
	sqlStr, args, err := builder.BuildSelect("style_fingerprints", map[string]interface{}{
		"owner_id": ownerID,
	}, []string{
		"owner_id", "sample_size", "avg_sentence_length", "topics", "bigrams", "trigrams",
		"greetings", "closings", "slang", "cadence", "profile", "ctime", "mtime",
	})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var fp model.StyleFingerprint
	var topics, bigrams, trigrams, greetings, closings, slang, cad, profile []byte
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(
		&fp.OwnerID, &fp.SampleSize, &fp.AvgSentenceLength, &topics, &bigrams, &trigrams,
		&greetings, &closings, &slang, &cad, &profile, &fp.Ctime, &fp.Mtime,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	decode := []struct {
		raw []byte
		dst interface{}
	}{
		{topics, &fp.Topics}, {bigrams, &fp.Bigrams}, {trigrams, &fp.Trigrams},
		{greetings, &fp.Greetings}, {closings, &fp.Closings}, {slang, &fp.Slang},
		{cad, &fp.Cadence}, {profile, &fp.Profile},
	}
	for _, d := range decode {
		if err := dbutil.DecodeJSONB(d.raw, d.dst); err != nil {
			return nil, err
		}
	}
	return &fp, nil
}

// Upsert writes the owner's single fingerprint row. Concurrent confirmations
// are serialized by the primary key; ctime keeps its first value.
func (r *StyleFingerprintRepo) Upsert(ctx context.Context, fp *model.StyleFingerprint) error {
	if err := fp.Validate(); err != nil {
		return err
	}
	values := []interface{}{fp.OwnerID, fp.SampleSize, fp.AvgSentenceLength}
	for _, v := range []interface{}{fp.Topics, fp.Bigrams, fp.Trigrams, fp.Greetings, fp.Closings, fp.Slang, fp.Cadence, fp.Profile} {
		encoded, err := dbutil.JSONB(v)
		if err != nil {
			return err
		}
		values = append(values, encoded)
	}
	values = append(values, fp.Ctime, fp.Mtime)
	const query = `
		INSERT INTO style_fingerprints (
			owner_id, sample_size, avg_sentence_length, topics, bigrams, trigrams,
			greetings, closings, slang, cadence, profile, ctime, mtime
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (owner_id) DO UPDATE SET
			sample_size = EXCLUDED.sample_size,
			avg_sentence_length = EXCLUDED.avg_sentence_length,
			topics = EXCLUDED.topics,
			bigrams = EXCLUDED.bigrams,
			trigrams = EXCLUDED.trigrams,
			greetings = EXCLUDED.greetings,
			closings = EXCLUDED.closings,
			slang = EXCLUDED.slang,
			cadence = EXCLUDED.cadence,
			profile = EXCLUDED.profile,
			mtime = EXCLUDED.mtime
	`
	_, err := r.db.ExecContext(ctx, query, values...)
	return err
}

func (r *StyleFingerprintRepo) Delete(ctx context.Context, ownerID string) error {
	sqlStr, args, err := builder.BuildDelete("style_fingerprints", map[string]interface{}{
		"owner_id": ownerID,
	})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return execAffectOne(ctx, r.db, sqlStr, args)
}
