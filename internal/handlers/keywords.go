package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/keyword-rotator/internal/logger"
	"github.com/benvon/keyword-rotator/internal/models"
	"github.com/benvon/keyword-rotator/internal/request"
	"github.com/benvon/keyword-rotator/internal/services/rotation"
	"github.com/benvon/keyword-rotator/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// DefaultPoolPageSize is the default number of pool entries listed
	DefaultPoolPageSize = 100
	// MaxPoolPageSize caps the pool listing
	MaxPoolPageSize = 500
	// DefaultSuggestCount is how many keywords are requested from the suggester by default
	DefaultSuggestCount = 10
)

// KeywordService is the rotation surface used by the HTTP handlers
type KeywordService interface {
	Location() *time.Location
	DateKey(t time.Time) string
	RotateKeywords(ctx context.Context, opts rotation.RotateOptions) (*models.RotationResult, error)
	GetActiveKeywordsForDate(ctx context.Context, t time.Time) ([]string, error)
	ListPool(ctx context.Context, limit int) ([]*models.PoolKeyword, error)
	AddKeywords(ctx context.Context, keywords []string) (*models.SeedResult, error)
	SeedPoolFromKeywordQueries(ctx context.Context, limit int) (*models.BackfillResult, error)
	SeedSuggestions(ctx context.Context, suggester rotation.Suggester, topic string, n int) (*models.SeedResult, error)
	RecordQuery(ctx context.Context, primary string, queries []string) error
}

var _ KeywordService = (*rotation.Service)(nil)

// KeywordHandler handles keyword rotation requests
type KeywordHandler struct {
	service   KeywordService
	suggester rotation.Suggester
	log       *zap.Logger
}

// NewKeywordHandler creates a new keyword handler. suggester may be nil, which disables
// the suggest route.
func NewKeywordHandler(service KeywordService, suggester rotation.Suggester, log *zap.Logger) *KeywordHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &KeywordHandler{service: service, suggester: suggester, log: log}
}

// RegisterRoutes registers the public keyword routes
// The router should already have the /keywords prefix
func (h *KeywordHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/active", h.GetActive).Methods("GET")
	r.HandleFunc("/pool", h.ListPool).Methods("GET")
}

// RegisterAdminRoutes registers the mutating keyword routes on a router guarded by admin auth
func (h *KeywordHandler) RegisterAdminRoutes(r *mux.Router) {
	r.HandleFunc("/rotate", h.Rotate).Methods("POST")
	r.HandleFunc("/pool", h.SeedPool).Methods("POST")
	r.HandleFunc("/pool/backfill", h.Backfill).Methods("POST")
	r.HandleFunc("/pool/suggest", h.Suggest).Methods("POST")
}

// RotateRequest represents a rotation request. Count is clamped, not rejected.
type RotateRequest struct {
	Count int    `json:"count"`
	Date  string `json:"date" validate:"omitempty,rotation_date"`
	Force bool   `json:"force"`
}

// SeedRequest represents a pool seed request
type SeedRequest struct {
	Keywords []string `json:"keywords" validate:"required,min=1,max=500,dive,max=200"`
}

// BackfillRequest represents a back-fill request. Zero uses the default scan size.
type BackfillRequest struct {
	Limit int `json:"limit" validate:"gte=0"`
}

// SuggestRequest represents an AI suggestion request
type SuggestRequest struct {
	Topic string `json:"topic" validate:"required,keyword"`
	Count int    `json:"count" validate:"gte=0,lte=50"`
}

// ActiveKeywordsResponse is returned by GetActive. Keywords is null when the day has no selection.
type ActiveKeywordsResponse struct {
	Date     string   `json:"date"`
	Keywords []string `json:"keywords"`
}

// GetActive returns the keywords selected for ?date= (today by default)
func (h *KeywordHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	day, ok := h.parseDateParam(w, r)
	if !ok {
		return
	}

	keywords, err := h.service.GetActiveKeywordsForDate(r.Context(), day)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to read active keywords")
		return
	}

	respondJSON(w, r, http.StatusOK, ActiveKeywordsResponse{
		Date:     h.service.DateKey(day),
		Keywords: keywords,
	})
}

// ListPool lists pool entries in rotation order
func (h *KeywordHandler) ListPool(w http.ResponseWriter, r *http.Request) {
	limit := DefaultPoolPageSize
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			if parsed > MaxPoolPageSize {
				limit = MaxPoolPageSize
			} else {
				limit = parsed
			}
		}
	}

	pool, err := h.service.ListPool(r.Context(), limit)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to list keyword pool")
		return
	}
	if pool == nil {
		pool = []*models.PoolKeyword{}
	}
	respondJSON(w, r, http.StatusOK, pool)
}

// Rotate runs a rotation for the requested day
func (h *KeywordHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	var req RotateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	opts := rotation.RotateOptions{Count: req.Count, Force: req.Force}
	if req.Date != "" {
		day, err := rotation.ParseDate(req.Date, h.service.Location())
		if err != nil {
			respondError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		opts.Date = day
	}

	result, err := h.service.RotateKeywords(r.Context(), opts)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to rotate keywords")
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// SeedPool adds keywords to the pool
func (h *KeywordHandler) SeedPool(w http.ResponseWriter, r *http.Request) {
	var req SeedRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	keywords := validation.SanitizeKeywords(req.Keywords)
	if len(keywords) == 0 {
		respondError(w, r, http.StatusBadRequest, "Keywords are required and cannot be empty after sanitization")
		return
	}

	result, err := h.service.AddKeywords(r.Context(), keywords)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to seed keyword pool")
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// Backfill seeds the pool from recent keyword queries
func (h *KeywordHandler) Backfill(w http.ResponseWriter, r *http.Request) {
	var req BackfillRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.SeedPoolFromKeywordQueries(r.Context(), req.Limit)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to back-fill keyword pool")
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// Suggest seeds AI suggested keywords for a topic
func (h *KeywordHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if h.suggester == nil {
		respondError(w, r, http.StatusServiceUnavailable, "Keyword suggestions are not configured")
		return
	}

	var req SuggestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	count := req.Count
	if count == 0 {
		count = DefaultSuggestCount
	}

	result, err := h.service.SeedSuggestions(r.Context(), h.suggester, validation.SanitizeText(req.Topic), count)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to suggest keywords")
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// parseDateParam reads ?date= in the service location. A missing value is the zero time.
func (h *KeywordHandler) parseDateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Time{}, true
	}
	day, err := rotation.ParseDate(raw, h.service.Location())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return time.Time{}, false
	}
	return day, true
}

// respondServiceError maps service errors to the response envelope without leaking internals
func (h *KeywordHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, rotation.ErrStoreNotInitialized):
		respondError(w, r, http.StatusServiceUnavailable, "Keyword store is not available")
	case errors.Is(err, rotation.ErrInvalidDate):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, message)
	default:
		h.log.Error("keyword_request_failed",
			zap.String("request_id", request.ID(r.Context())),
			zap.String("message", message),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondError(w, r, http.StatusInternalServerError, message)
	}
}
