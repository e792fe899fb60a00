package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benvon/keyword-rotator/internal/models"
	"github.com/benvon/keyword-rotator/internal/services/rotation"
	"github.com/benvon/keyword-rotator/internal/services/tiktok"
)

type mockKeywordService struct {
	rotateFunc   func(ctx context.Context, opts rotation.RotateOptions) (*models.RotationResult, error)
	activeFunc   func(ctx context.Context, t time.Time) ([]string, error)
	listPoolFunc func(ctx context.Context, limit int) ([]*models.PoolKeyword, error)
	addFunc      func(ctx context.Context, keywords []string) (*models.SeedResult, error)
	backfillFunc func(ctx context.Context, limit int) (*models.BackfillResult, error)
	suggestFunc  func(ctx context.Context, suggester rotation.Suggester, topic string, n int) (*models.SeedResult, error)
	recordFunc   func(ctx context.Context, primary string, queries []string) error
}

var _ KeywordService = (*mockKeywordService)(nil)

func (m *mockKeywordService) Location() *time.Location {
	return time.UTC
}

func (m *mockKeywordService) DateKey(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return rotation.DateKey(t.In(time.UTC))
}

func (m *mockKeywordService) RotateKeywords(ctx context.Context, opts rotation.RotateOptions) (*models.RotationResult, error) {
	if m.rotateFunc != nil {
		return m.rotateFunc(ctx, opts)
	}
	return &models.RotationResult{Date: m.DateKey(opts.Date), Keywords: []string{}}, nil
}

func (m *mockKeywordService) GetActiveKeywordsForDate(ctx context.Context, t time.Time) ([]string, error) {
	if m.activeFunc != nil {
		return m.activeFunc(ctx, t)
	}
	return nil, nil
}

func (m *mockKeywordService) ListPool(ctx context.Context, limit int) ([]*models.PoolKeyword, error) {
	if m.listPoolFunc != nil {
		return m.listPoolFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockKeywordService) AddKeywords(ctx context.Context, keywords []string) (*models.SeedResult, error) {
	if m.addFunc != nil {
		return m.addFunc(ctx, keywords)
	}
	return &models.SeedResult{Added: len(keywords), Keywords: keywords}, nil
}

func (m *mockKeywordService) SeedPoolFromKeywordQueries(ctx context.Context, limit int) (*models.BackfillResult, error) {
	if m.backfillFunc != nil {
		return m.backfillFunc(ctx, limit)
	}
	return &models.BackfillResult{Keywords: []string{}}, nil
}

func (m *mockKeywordService) SeedSuggestions(ctx context.Context, suggester rotation.Suggester, topic string, n int) (*models.SeedResult, error) {
	if m.suggestFunc != nil {
		return m.suggestFunc(ctx, suggester, topic, n)
	}
	return &models.SeedResult{Keywords: []string{}}, nil
}

func (m *mockKeywordService) RecordQuery(ctx context.Context, primary string, queries []string) error {
	if m.recordFunc != nil {
		return m.recordFunc(ctx, primary, queries)
	}
	return nil
}

type mockSuggester struct{}

func (mockSuggester) SuggestKeywords(ctx context.Context, topic string, n int, exclude []string) ([]string, error) {
	return nil, nil
}

type mockRanker struct {
	topSixFunc func(ctx context.Context, keywords []string) ([]tiktok.RankedVideo, error)
}

func (m *mockRanker) TopSix(ctx context.Context, keywords []string) ([]tiktok.RankedVideo, error) {
	if m.topSixFunc != nil {
		return m.topSixFunc(ctx, keywords)
	}
	return tiktok.Placeholders(tiktok.TopN), nil
}

type mockGenerator struct {
	queries []string
}

func (m *mockGenerator) GenerateDiverseQueries(keyword string, targetCount int) []string {
	return m.queries
}

// envelope is the decoded response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}
