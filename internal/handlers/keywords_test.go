package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/keyword-rotator/internal/models"
	"github.com/benvon/keyword-rotator/internal/services/rotation"
	"github.com/gorilla/mux"
)

func newKeywordRouter(h *KeywordHandler) *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r.PathPrefix("/keywords").Subrouter())
	h.RegisterAdminRoutes(r.PathPrefix("/keywords").Subrouter())
	return r
}

func TestKeywordHandler_GetActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		active     func(ctx context.Context, day time.Time) ([]string, error)
		wantStatus int
		wantData   string
	}{
		{
			name: "no selection yields null keywords",
			path: "/keywords/active?date=2025-01-15",
			active: func(ctx context.Context, day time.Time) ([]string, error) {
				return nil, nil
			},
			wantStatus: http.StatusOK,
			wantData:   `{"date":"2025-01-15","keywords":null}`,
		},
		{
			name: "empty selection yields empty list",
			path: "/keywords/active?date=2025-01-15",
			active: func(ctx context.Context, day time.Time) ([]string, error) {
				return []string{}, nil
			},
			wantStatus: http.StatusOK,
			wantData:   `{"date":"2025-01-15","keywords":[]}`,
		},
		{
			name: "selection",
			path: "/keywords/active?date=2025-01-15",
			active: func(ctx context.Context, day time.Time) ([]string, error) {
				if rotation.DateKey(day) != "2025-01-15" {
					return nil, errors.New("wrong day")
				}
				return []string{"ai tools", "cooking"}, nil
			},
			wantStatus: http.StatusOK,
			wantData:   `{"date":"2025-01-15","keywords":["ai tools","cooking"]}`,
		},
		{
			name:       "invalid date",
			path:       "/keywords/active?date=yesterday",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "store not initialized",
			path: "/keywords/active",
			active: func(ctx context.Context, day time.Time) ([]string, error) {
				return nil, rotation.ErrStoreNotInitialized
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name: "store failure",
			path: "/keywords/active",
			active: func(ctx context.Context, day time.Time) ([]string, error) {
				return nil, errors.New("connection reset")
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewKeywordHandler(&mockKeywordService{activeFunc: tt.active}, nil, nil)
			w := httptest.NewRecorder()
			newKeywordRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
			env := decodeEnvelope(t, w)
			if tt.wantData != "" && string(env.Data) != tt.wantData {
				t.Errorf("data = %s, want %s", env.Data, tt.wantData)
			}
			if w.Code == http.StatusInternalServerError && strings.Contains(env.Message, "connection reset") {
				t.Error("internal error details leaked into the response")
			}
		})
	}
}

func TestKeywordHandler_Rotate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       any
		wantStatus int
		check      func(t *testing.T, opts rotation.RotateOptions)
	}{
		{
			name:       "empty body uses defaults",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, opts rotation.RotateOptions) {
				if opts.Count != 0 || opts.Force || !opts.Date.IsZero() {
					t.Errorf("unexpected options %+v", opts)
				}
			},
		},
		{
			name:       "explicit date and force",
			body:       map[string]any{"count": 5, "date": "2025-01-15", "force": true},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, opts rotation.RotateOptions) {
				if opts.Count != 5 || !opts.Force {
					t.Errorf("unexpected options %+v", opts)
				}
				if got := rotation.DateKey(opts.Date); got != "2025-01-15" {
					t.Errorf("date = %s", got)
				}
			},
		},
		{
			name:       "oversized count is passed through for clamping",
			body:       map[string]any{"count": 50},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, opts rotation.RotateOptions) {
				if opts.Count != 50 {
					t.Errorf("count = %d", opts.Count)
				}
			},
		},
		{
			name:       "invalid date",
			body:       map[string]any{"date": "15/01/2025"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got *rotation.RotateOptions
			svc := &mockKeywordService{
				rotateFunc: func(ctx context.Context, opts rotation.RotateOptions) (*models.RotationResult, error) {
					got = &opts
					return &models.RotationResult{Date: "2025-01-15", Keywords: []string{"ai"}}, nil
				},
			}
			h := NewKeywordHandler(svc, nil, nil)
			w := httptest.NewRecorder()
			newKeywordRouter(h).ServeHTTP(w, newTestRequest(http.MethodPost, "/keywords/rotate", tt.body))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.check == nil {
				if got != nil {
					t.Error("service should not be called")
				}
				return
			}
			if got == nil {
				t.Fatal("service was not called")
			}
			tt.check(t, *got)
		})
	}
}

func TestKeywordHandler_Rotate_MalformedBody(t *testing.T) {
	t.Parallel()

	h := NewKeywordHandler(&mockKeywordService{}, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/keywords/rotate", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	newKeywordRouter(h).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestKeywordHandler_SeedPool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantSeeded []string
	}{
		{
			name:       "sanitized keywords",
			body:       map[string]any{"keywords": []string{"  AI Tools ", "cooking\x00", "   "}},
			wantStatus: http.StatusOK,
			wantSeeded: []string{"AI Tools", "cooking"},
		},
		{
			name:       "missing keywords",
			body:       map[string]any{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "only blank keywords",
			body:       map[string]any{"keywords": []string{" ", "\t"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "keyword too long",
			body:       map[string]any{"keywords": []string{strings.Repeat("a", 201)}},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seeded []string
			svc := &mockKeywordService{
				addFunc: func(ctx context.Context, keywords []string) (*models.SeedResult, error) {
					seeded = keywords
					return &models.SeedResult{Added: len(keywords), Keywords: keywords}, nil
				},
			}
			w := httptest.NewRecorder()
			newKeywordRouter(NewKeywordHandler(svc, nil, nil)).ServeHTTP(w, newTestRequest(http.MethodPost, "/keywords/pool", tt.body))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantSeeded == nil {
				return
			}
			if strings.Join(seeded, "|") != strings.Join(tt.wantSeeded, "|") {
				t.Errorf("seeded %q, want %q", seeded, tt.wantSeeded)
			}
		})
	}
}

func TestKeywordHandler_ListPool_Limit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  int
	}{
		{query: "", want: DefaultPoolPageSize},
		{query: "?limit=25", want: 25},
		{query: "?limit=9999", want: MaxPoolPageSize},
		{query: "?limit=-3", want: DefaultPoolPageSize},
		{query: "?limit=abc", want: DefaultPoolPageSize},
	}

	for _, tt := range tests {
		t.Run("limit"+tt.query, func(t *testing.T) {
			t.Parallel()

			var got int
			svc := &mockKeywordService{
				listPoolFunc: func(ctx context.Context, limit int) ([]*models.PoolKeyword, error) {
					got = limit
					return nil, nil
				},
			}
			w := httptest.NewRecorder()
			newKeywordRouter(NewKeywordHandler(svc, nil, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/keywords/pool"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			if got != tt.want {
				t.Errorf("limit = %d, want %d", got, tt.want)
			}
			if data := string(decodeEnvelope(t, w).Data); data != "[]" {
				t.Errorf("data = %s, want []", data)
			}
		})
	}
}

func TestKeywordHandler_Backfill(t *testing.T) {
	t.Parallel()

	var gotLimit int
	svc := &mockKeywordService{
		backfillFunc: func(ctx context.Context, limit int) (*models.BackfillResult, error) {
			gotLimit = limit
			return &models.BackfillResult{Added: 1, Keywords: []string{"fitness"}}, nil
		},
	}
	w := httptest.NewRecorder()
	newKeywordRouter(NewKeywordHandler(svc, nil, nil)).ServeHTTP(w, newTestRequest(http.MethodPost, "/keywords/pool/backfill", map[string]int{"limit": 120}))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if gotLimit != 120 {
		t.Errorf("limit = %d, want 120", gotLimit)
	}

	var res models.BackfillResult
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &res); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if res.Added != 1 || res.Keywords[0] != "fitness" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestKeywordHandler_Suggest(t *testing.T) {
	t.Parallel()

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		h := NewKeywordHandler(&mockKeywordService{}, nil, nil)
		newKeywordRouter(h).ServeHTTP(w, newTestRequest(http.MethodPost, "/keywords/pool/suggest", map[string]any{"topic": "cooking"}))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", w.Code)
		}
	})

	t.Run("default count", func(t *testing.T) {
		t.Parallel()

		var gotTopic string
		var gotN int
		svc := &mockKeywordService{
			suggestFunc: func(ctx context.Context, suggester rotation.Suggester, topic string, n int) (*models.SeedResult, error) {
				gotTopic, gotN = topic, n
				return &models.SeedResult{Added: 2, Keywords: []string{"meal prep", "air fryer"}}, nil
			},
		}
		w := httptest.NewRecorder()
		h := NewKeywordHandler(svc, mockSuggester{}, nil)
		newKeywordRouter(h).ServeHTTP(w, newTestRequest(http.MethodPost, "/keywords/pool/suggest", map[string]any{"topic": " cooking "}))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if gotTopic != "cooking" || gotN != DefaultSuggestCount {
			t.Errorf("topic %q n %d", gotTopic, gotN)
		}
	})

	t.Run("missing topic", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		h := NewKeywordHandler(&mockKeywordService{}, mockSuggester{}, nil)
		newKeywordRouter(h).ServeHTTP(w, newTestRequest(http.MethodPost, "/keywords/pool/suggest", map[string]any{"count": 5}))
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}
