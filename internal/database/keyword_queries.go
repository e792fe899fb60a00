package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/keyword-rotator/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// KeywordQueryRepository handles keyword_queries database operations
type KeywordQueryRepository struct {
	db *DB
}

// NewKeywordQueryRepository creates a new keyword query repository
func NewKeywordQueryRepository(db *DB) *KeywordQueryRepository {
	return &KeywordQueryRepository{db: db}
}

// Create records a keyword query, assigning an id and timestamp when unset
func (r *KeywordQueryRepository) Create(ctx context.Context, q *models.KeywordQuery) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	queries := q.Queries
	if queries == nil {
		queries = []string{}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO keyword_queries (id, primary_keyword, queries, created_at)
		VALUES ($1, $2, $3, $4)
	`, q.ID, q.PrimaryKeyword, pq.Array(queries), q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create keyword query: %w", err)
	}
	return nil
}

// RecentPrimaryKeywords returns primary_keyword of the newest limit records, newest first.
// Duplicates are returned as stored.
func (r *KeywordQueryRepository) RecentPrimaryKeywords(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT primary_keyword
		FROM keyword_queries
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list keyword queries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keywords []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("failed to scan keyword query: %w", err)
		}
		keywords = append(keywords, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate keyword queries: %w", err)
	}
	return keywords, nil
}
