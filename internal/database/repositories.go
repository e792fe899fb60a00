package database

import (
	"context"
	"time"

	"github.com/benvon/keyword-rotator/internal/models"
)

// KeywordPoolRepositoryInterface defines the interface for keyword pool operations
// This interface enables better testability by allowing mock implementations
type KeywordPoolRepositoryInterface interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.PoolKeyword, error)
	UpsertKeywords(ctx context.Context, keywords []models.PoolKeyword) error
	ListLeastRecentlyUsed(ctx context.Context, limit int) ([]*models.PoolKeyword, error)
}

// DailySelectionRepositoryInterface defines the interface for daily selection operations
type DailySelectionRepositoryInterface interface {
	Get(ctx context.Context, date string) (*models.DailySelection, error)
	CommitRotation(ctx context.Context, sel *models.DailySelection, ids []string, usedAt *time.Time) error
}

// KeywordQueryRepositoryInterface defines the interface for keyword query history operations
type KeywordQueryRepositoryInterface interface {
	Create(ctx context.Context, q *models.KeywordQuery) error
	RecentPrimaryKeywords(ctx context.Context, limit int) ([]string, error)
}

// CorsConfigRepositoryInterface defines the interface for CORS config storage
type CorsConfigRepositoryInterface interface {
	Get(ctx context.Context) (*models.CorsConfig, error)
	Set(ctx context.Context, c *models.CorsConfig) error
}

// RatelimitConfigRepositoryInterface defines the interface for rate limit config storage
type RatelimitConfigRepositoryInterface interface {
	Get(ctx context.Context) (*models.RatelimitConfig, error)
	Set(ctx context.Context, c *models.RatelimitConfig) error
}

// Ensure concrete types implement the interfaces
var (
	_ KeywordPoolRepositoryInterface     = (*KeywordPoolRepository)(nil)
	_ DailySelectionRepositoryInterface  = (*DailySelectionRepository)(nil)
	_ KeywordQueryRepositoryInterface    = (*KeywordQueryRepository)(nil)
	_ CorsConfigRepositoryInterface      = (*CorsConfigRepository)(nil)
	_ RatelimitConfigRepositoryInterface = (*RatelimitConfigRepository)(nil)
)
