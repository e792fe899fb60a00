package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/keyword-rotator/internal/models"
	"github.com/lib/pq"
)

// DailySelectionRepository handles keyword_rotation_days database operations
type DailySelectionRepository struct {
	db *DB
}

// NewDailySelectionRepository creates a new daily selection repository
func NewDailySelectionRepository(db *DB) *DailySelectionRepository {
	return &DailySelectionRepository{db: db}
}

// Get returns the selection recorded for a date key, or nil when there is none
func (r *DailySelectionRepository) Get(ctx context.Context, date string) (*models.DailySelection, error) {
	sel := &models.DailySelection{}
	var keywords pq.StringArray
	err := r.db.QueryRowContext(ctx, `
		SELECT date, keywords, created_at
		FROM keyword_rotation_days
		WHERE date = $1
	`, date).Scan(&sel.Date, &keywords, &sel.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily selection: %w", err)
	}
	sel.Keywords = []string(keywords)
	if sel.Keywords == nil {
		sel.Keywords = []string{}
	}
	return sel, nil
}

// CommitRotation marks the chosen pool ids as used and writes the day's selection in one
// transaction. A nil usedAt stamps the rows with the database clock.
func (r *DailySelectionRepository) CommitRotation(ctx context.Context, sel *models.DailySelection, ids []string, usedAt *time.Time) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var stamp sql.NullTime
		if usedAt != nil {
			stamp = sql.NullTime{Time: *usedAt, Valid: true}
		}

		if len(ids) > 0 {
			if _, err := tx.ExecContext(ctx, `
				UPDATE keyword_pool
				SET last_used = COALESCE($2, now()), times_used = times_used + 1
				WHERE id = ANY($1)
			`, pq.Array(ids), stamp); err != nil {
				return fmt.Errorf("failed to mark keywords used: %w", err)
			}
		}

		keywords := sel.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO keyword_rotation_days (date, keywords, created_at)
			VALUES ($1, $2, now())
			ON CONFLICT (date) DO UPDATE SET
				keywords = EXCLUDED.keywords,
				created_at = EXCLUDED.created_at
			RETURNING created_at
		`, sel.Date, pq.Array(keywords)).Scan(&sel.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to write daily selection: %w", err)
		}
		return nil
	})
}
