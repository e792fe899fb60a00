package models

import (
	"time"

	"github.com/google/uuid"
)

// PoolKeyword is a candidate keyword available for daily rotation
type PoolKeyword struct {
	ID        string     `json:"id"`
	Keyword   string     `json:"keyword"`
	LastUsed  *time.Time `json:"last_used"` // nil = never selected
	TimesUsed int        `json:"times_used"`
	CreatedAt time.Time  `json:"created_at"`
}

// DailySelection records which keywords were chosen for one calendar day
type DailySelection struct {
	Date      string    `json:"date"`     // YYYY-MM-DD, local time
	Keywords  []string  `json:"keywords"` // selection rank, best first
	CreatedAt time.Time `json:"created_at"`
}

// KeywordQuery is a historical record of a keyword a caller searched for
type KeywordQuery struct {
	ID             uuid.UUID `json:"id"`
	PrimaryKeyword string    `json:"primary_keyword"`
	Queries        []string  `json:"queries,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RotationResult is returned by a rotation run
type RotationResult struct {
	Date     string   `json:"date"`
	Keywords []string `json:"keywords"`
	// Seeded is only set when the pool had to be back-filled during the run
	Seeded *int `json:"seeded,omitempty"`
}

// BackfillResult reports keywords newly introduced into the pool from historical queries
type BackfillResult struct {
	Added    int      `json:"added"`
	Keywords []string `json:"keywords"`
}

// SeedResult reports which seeded keywords were new to the pool
type SeedResult struct {
	Added    int      `json:"added"`
	Keywords []string `json:"keywords"`
}
