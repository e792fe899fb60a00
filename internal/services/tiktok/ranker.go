package tiktok

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/benvon/keyword-rotator/internal/logger"
	"go.uber.org/zap"
)

// TopN is the number of videos TopSix returns
const TopN = 6

// DefaultSearchCount is how many results are requested per keyword
const DefaultSearchCount = 20

// newsPattern excludes news and current-affairs content from the picks
var newsPattern = regexp.MustCompile(`(?i)\b(news|breaking|headlines?|politics?|political|election|elections|senate|congress|war|reporter|press conference)\b`)

// FallbackKeywords pad the result when searches return too little
var FallbackKeywords = []string{
	"morning routine",
	"productivity tips",
	"healthy recipes",
	"home workout",
	"study tips",
	"budget travel",
}

// Searcher runs a keyword video search
type Searcher interface {
	Search(ctx context.Context, keyword string, count int) (*SearchResponse, error)
}

// Ranker picks the best videos across the day's keywords
type Ranker struct {
	searcher Searcher
	filters  Filters
	log      *zap.Logger
	now      func() time.Time
}

// NewRanker creates a Ranker. A nil searcher yields placeholder-only results.
func NewRanker(searcher Searcher, filters Filters, log *zap.Logger) *Ranker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ranker{searcher: searcher, filters: filters, log: log, now: time.Now}
}

// IsNews reports whether text looks like news content
func IsNews(text string) bool {
	return newsPattern.MatchString(text)
}

// TopSix searches every keyword, drops news, keeps the best score per video id and returns
// the six highest. With no keywords the fallback list is searched. The result is padded with
// placeholder entries so it always holds TopN items; an error is returned only for a
// cancelled context.
func (r *Ranker) TopSix(ctx context.Context, keywords []string) ([]RankedVideo, error) {
	now := r.now()
	search := cleanKeywords(keywords)
	if len(search) == 0 {
		search = FallbackKeywords
	}

	best := make(map[string]RankedVideo)
	if r.searcher != nil {
		for _, kw := range search {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("top six search cancelled: %w", err)
			}
			resp, err := r.searcher.Search(ctx, kw, DefaultSearchCount)
			if err != nil {
				r.log.Warn("tiktok_search_failed",
					zap.String("keyword", logger.SanitizeKeyword(kw)),
					zap.String("error", logger.SanitizeError(err)),
				)
				continue
			}
			for _, pick := range PickVideos(resp, kw, r.filters, now) {
				if IsNews(pick.Description) {
					continue
				}
				ranked := RankedVideo{PickedVideo: pick, Score: Score(pick, now)}
				if prev, ok := best[pick.ID]; !ok || ranked.Score > prev.Score {
					best[pick.ID] = ranked
				}
			}
		}
	}

	out := make([]RankedVideo, 0, len(best))
	for _, v := range best {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > TopN {
		out = out[:TopN]
	}

	if len(out) < TopN {
		r.log.Info("tiktok_top_six_padded",
			zap.Int("found", len(out)),
			zap.Int("placeholders", TopN-len(out)),
		)
		out = append(out, Placeholders(TopN-len(out))...)
	}
	return out, nil
}

// Placeholders synthesizes n entries from FallbackKeywords, cycling when n exceeds the list
func Placeholders(n int) []RankedVideo {
	out := make([]RankedVideo, 0, n)
	for i := 0; i < n; i++ {
		kw := FallbackKeywords[i%len(FallbackKeywords)]
		out = append(out, RankedVideo{
			PickedVideo: PickedVideo{
				ID:          fmt.Sprintf("placeholder-%d", i+1),
				Keyword:     kw,
				Description: kw,
			},
			Placeholder: true,
		})
	}
	return out
}

func cleanKeywords(keywords []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if kw == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
	}
	return out
}
