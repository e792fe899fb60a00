package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/keyword-rotator/internal/logger"
	"github.com/benvon/keyword-rotator/internal/services/diversifier"
	"github.com/benvon/keyword-rotator/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// QueryGenerator expands a keyword into query strings
type QueryGenerator interface {
	GenerateDiverseQueries(keyword string, targetCount int) []string
}

var _ QueryGenerator = (*diversifier.Diversifier)(nil)

// QueryRecorder stores the keyword a caller searched for
type QueryRecorder interface {
	RecordQuery(ctx context.Context, primary string, queries []string) error
}

// QueryHandler handles query diversification requests
type QueryHandler struct {
	generator QueryGenerator
	recorder  QueryRecorder
	log       *zap.Logger
}

// NewQueryHandler creates a new query handler. recorder may be nil.
func NewQueryHandler(generator QueryGenerator, recorder QueryRecorder, log *zap.Logger) *QueryHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &QueryHandler{generator: generator, recorder: recorder, log: log}
}

// RegisterRoutes registers query routes
// The router should already have the /queries prefix
func (h *QueryHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/diversify", h.Diversify).Methods("POST")
}

// DiversifyRequest represents a diversify request. Zero TargetCount uses the default.
type DiversifyRequest struct {
	Keyword     string `json:"keyword" validate:"required,keyword"`
	TargetCount int    `json:"target_count" validate:"gte=0,lte=100"`
}

// DiversifyResponse lists the generated queries
type DiversifyResponse struct {
	Keyword string   `json:"keyword"`
	Queries []string `json:"queries"`
}

// Diversify expands a keyword and records it for later pool back-fills. A failed
// record does not fail the request.
func (h *QueryHandler) Diversify(w http.ResponseWriter, r *http.Request) {
	var req DiversifyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	keyword := validation.SanitizeText(req.Keyword)
	queries := h.generator.GenerateDiverseQueries(keyword, req.TargetCount)

	if h.recorder != nil {
		if err := h.recorder.RecordQuery(r.Context(), keyword, queries); err != nil {
			h.log.Warn("keyword_query_record_failed",
				zap.String("keyword", logger.SanitizeKeyword(keyword)),
				zap.String("error", logger.SanitizeError(err)),
			)
		}
	}

	respondJSON(w, r, http.StatusOK, DiversifyResponse{Keyword: keyword, Queries: queries})
}
