package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/keyword-rotator/internal/logger"
	"github.com/benvon/keyword-rotator/internal/services/tiktok"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// VideoRanker picks the best videos for a list of keywords
type VideoRanker interface {
	TopSix(ctx context.Context, keywords []string) ([]tiktok.RankedVideo, error)
}

var _ VideoRanker = (*tiktok.Ranker)(nil)

// VideoHandler serves ranked videos for the day's keywords
type VideoHandler struct {
	keywords *KeywordHandler
	ranker   VideoRanker
	log      *zap.Logger
}

// NewVideoHandler creates a new video handler. A nil ranker makes the route respond 503.
func NewVideoHandler(keywords *KeywordHandler, ranker VideoRanker, log *zap.Logger) *VideoHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &VideoHandler{keywords: keywords, ranker: ranker, log: log}
}

// RegisterRoutes registers video routes
// The router should already have the /videos prefix
func (h *VideoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/top-six", h.TopSix).Methods("GET")
}

// TopSixResponse lists the ranked videos and the keywords they were searched with
type TopSixResponse struct {
	Date     string               `json:"date"`
	Keywords []string             `json:"keywords"`
	Videos   []tiktok.RankedVideo `json:"videos"`
}

// TopSix ranks videos for the keywords active on ?date= (today by default). A day without a
// selection falls back to the ranker's default keywords.
func (h *VideoHandler) TopSix(w http.ResponseWriter, r *http.Request) {
	if h.ranker == nil {
		respondError(w, r, http.StatusServiceUnavailable, "Video search is not configured")
		return
	}

	day, ok := h.keywords.parseDateParam(w, r)
	if !ok {
		return
	}
	service := h.keywords.service

	keywords, err := service.GetActiveKeywordsForDate(r.Context(), day)
	if err != nil {
		h.keywords.respondServiceError(w, r, err, "Failed to read active keywords")
		return
	}

	videos, err := h.ranker.TopSix(r.Context(), keywords)
	if err != nil {
		h.log.Warn("top_six_failed", zap.String("error", logger.SanitizeError(err)))
		respondError(w, r, http.StatusServiceUnavailable, "Video search was interrupted")
		return
	}

	if keywords == nil {
		keywords = []string{}
	}
	respondJSON(w, r, http.StatusOK, TopSixResponse{
		Date:     service.DateKey(day),
		Keywords: keywords,
		Videos:   videos,
	})
}
