package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/benvon/keyword-rotator/internal/models"
	"github.com/lib/pq"
)

// KeywordPoolRepository handles keyword pool database operations
type KeywordPoolRepository struct {
	db *DB
}

// NewKeywordPoolRepository creates a new keyword pool repository
func NewKeywordPoolRepository(db *DB) *KeywordPoolRepository {
	return &KeywordPoolRepository{db: db}
}

// GetByIDs returns the pool entries that exist for the given ids, keyed by id
func (r *KeywordPoolRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.PoolKeyword, error) {
	out := make(map[string]*models.PoolKeyword, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, keyword, last_used, times_used, created_at
		FROM keyword_pool
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get pool keywords: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		kw, err := scanPoolKeyword(rows)
		if err != nil {
			return nil, err
		}
		out[kw.ID] = kw
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pool keywords: %w", err)
	}
	return out, nil
}

// UpsertKeywords writes every entry in one transaction. Existing rows only get their
// display text refreshed; last_used, times_used and created_at are preserved.
func (r *KeywordPoolRepository) UpsertKeywords(ctx context.Context, keywords []models.PoolKeyword) error {
	if len(keywords) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO keyword_pool (id, keyword, last_used, times_used, created_at)
			VALUES ($1, $2, NULL, 0, $3)
			ON CONFLICT (id) DO UPDATE SET keyword = EXCLUDED.keyword
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare keyword upsert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		now := time.Now()
		for _, kw := range keywords {
			createdAt := kw.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}
			if _, err := stmt.ExecContext(ctx, kw.ID, kw.Keyword, createdAt); err != nil {
				return fmt.Errorf("failed to upsert keyword %q: %w", kw.ID, err)
			}
		}
		return nil
	})
}

// ListLeastRecentlyUsed returns up to limit entries, never-used first, then oldest last_used.
// Ties are broken by created_at so the order is stable across calls.
func (r *KeywordPoolRepository) ListLeastRecentlyUsed(ctx context.Context, limit int) ([]*models.PoolKeyword, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, keyword, last_used, times_used, created_at
		FROM keyword_pool
		ORDER BY last_used ASC NULLS FIRST, created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pool keywords: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keywords []*models.PoolKeyword
	for rows.Next() {
		kw, err := scanPoolKeyword(rows)
		if err != nil {
			return nil, err
		}
		keywords = append(keywords, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pool keywords: %w", err)
	}
	return keywords, nil
}

// Count returns the number of pool entries
func (r *KeywordPoolRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM keyword_pool`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pool keywords: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoolKeyword(row rowScanner) (*models.PoolKeyword, error) {
	kw := &models.PoolKeyword{}
	var lastUsed sql.NullTime
	if err := row.Scan(&kw.ID, &kw.Keyword, &lastUsed, &kw.TimesUsed, &kw.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan pool keyword: %w", err)
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		kw.LastUsed = &t
	}
	return kw, nil
}
