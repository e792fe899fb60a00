package rotation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/benvon/keyword-rotator/internal/database"
	"github.com/benvon/keyword-rotator/internal/logger"
	"github.com/benvon/keyword-rotator/internal/metrics"
	"github.com/benvon/keyword-rotator/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultCount is the number of keywords selected per day when none is requested
	DefaultCount = 3
	// MaxCount caps a single day's selection
	MaxCount = 10
	// minCandidateFetch is the smallest candidate window read from the pool
	minCandidateFetch = 10

	// DefaultBackfillLimit is how many recent keyword queries a back-fill scans
	DefaultBackfillLimit = 50
	// MaxBackfillLimit caps the back-fill scan
	MaxBackfillLimit = 500
)

// SelectionCache is an optional read-through cache of daily selections. Every process that
// commits rotations for the same store must share it, or readers may serve a replaced day.
type SelectionCache interface {
	Get(ctx context.Context, date string) ([]string, bool, error)
	Set(ctx context.Context, date string, keywords []string) error
	Delete(ctx context.Context, date string) error
}

// RotateOptions controls a rotation run
type RotateOptions struct {
	// Count is clamped to [1, MaxCount]; zero uses the service default
	Count int
	// Date selects the day to rotate; zero means now. An explicit date is also
	// written as the last_used stamp of the chosen keywords.
	Date time.Time
	// Force recomputes a day that already has a selection
	Force bool
}

// Service selects the daily keywords from the pool and maintains usage bookkeeping
type Service struct {
	pool    database.KeywordPoolRepositoryInterface
	days    database.DailySelectionRepositoryInterface
	queries database.KeywordQueryRepositoryInterface

	cache        SelectionCache
	loc          *time.Location
	defaultCount int
	now          func() time.Time
	log          *zap.Logger
	tracer       trace.Tracer
}

// Option configures a Service
type Option func(*Service)

// WithCache enables the daily selection cache
func WithCache(c SelectionCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLocation sets the zone calendar days are keyed in
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithDefaultCount overrides DefaultCount
func WithDefaultCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultCount = clampCount(n, DefaultCount)
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a rotation service over the given repositories
func NewService(
	pool database.KeywordPoolRepositoryInterface,
	days database.DailySelectionRepositoryInterface,
	queries database.KeywordQueryRepositoryInterface,
	opts ...Option,
) *Service {
	s := &Service{
		pool:         pool,
		days:         days,
		queries:      queries,
		loc:          time.Local,
		defaultCount: DefaultCount,
		now:          time.Now,
		log:          zap.NewNop(),
		tracer:       otel.Tracer("github.com/benvon/keyword-rotator/internal/services/rotation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the zone calendar days are keyed in
func (s *Service) Location() *time.Location {
	return s.loc
}

// DateKey keys t in the service location; a zero t means today
func (s *Service) DateKey(t time.Time) string {
	if t.IsZero() {
		t = s.now()
	}
	return DateKey(t.In(s.loc))
}

func (s *Service) ready() error {
	if s == nil || s.pool == nil || s.days == nil || s.queries == nil {
		return ErrStoreNotInitialized
	}
	return nil
}

// SeedKeywordPool upserts keywords into the pool in one transaction. Blank entries are
// ignored and re-seeding an existing keyword keeps its usage counters.
func (s *Service) SeedKeywordPool(ctx context.Context, keywords []string) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.seed(ctx, keywords)
	return err
}

// AddKeywords seeds keywords like SeedKeywordPool and reports which of them were new
func (s *Service) AddKeywords(ctx context.Context, keywords []string) (*models.SeedResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	added, err := s.seed(ctx, keywords)
	if err != nil {
		return nil, err
	}
	return &models.SeedResult{Added: len(added), Keywords: added}, nil
}

// Suggester proposes new keywords for a topic, avoiding the ones in exclude
type Suggester interface {
	SuggestKeywords(ctx context.Context, topic string, n int, exclude []string) ([]string, error)
}

// suggestExcludeWindow bounds how much of the pool is sent as exclusions
const suggestExcludeWindow = 200

// SeedSuggestions asks suggester for n keywords about topic and seeds the new ones
func (s *Service) SeedSuggestions(ctx context.Context, suggester Suggester, topic string, n int) (*models.SeedResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if suggester == nil {
		return nil, fmt.Errorf("keyword suggestions are not configured")
	}

	pool, err := s.pool.ListLeastRecentlyUsed(ctx, suggestExcludeWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to list pool: %w", err)
	}
	exclude := make([]string, 0, len(pool))
	for _, kw := range pool {
		exclude = append(exclude, kw.Keyword)
	}

	suggested, err := suggester.SuggestKeywords(ctx, topic, n, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest keywords: %w", err)
	}
	s.log.Info("keywords_suggested",
		zap.String("topic", logger.SanitizeString(topic, 100)),
		zap.Int("suggested", len(suggested)),
	)
	return s.AddKeywords(ctx, suggested)
}

// seed writes keywords and returns the display strings that were not in the pool before
func (s *Service) seed(ctx context.Context, keywords []string) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "rotation.seed")
	defer span.End()

	type entry struct {
		display    string
		normalized string
	}
	var entries []entry
	seen := make(map[string]bool)
	for _, raw := range keywords {
		display := strings.TrimSpace(raw)
		if display == "" {
			continue
		}
		normalized := NormalizeKeyword(display)
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		entries = append(entries, entry{display: display, normalized: normalized})
	}
	span.SetAttributes(attribute.Int("rotation.seed.keywords", len(entries)))
	if len(entries) == 0 {
		return []string{}, nil
	}

	lookup := make([]string, 0, len(entries)*2)
	for _, e := range entries {
		if id := KeywordID(e.display); id != "" {
			lookup = append(lookup, id)
		}
		lookup = append(lookup, CollisionID(e.display))
	}
	existing, err := s.pool.GetByIDs(ctx, lookup)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, fmt.Errorf("failed to look up pool keywords: %w", err)
	}

	owner := make(map[string]string, len(existing))
	for id, kw := range existing {
		owner[id] = NormalizeKeyword(kw.Keyword)
	}

	now := s.now()
	rows := make([]models.PoolKeyword, 0, len(entries))
	added := make([]string, 0, len(entries))
	for i, e := range entries {
		id := KeywordID(e.display)
		if id == "" || (owner[id] != "" && owner[id] != e.normalized) {
			id = CollisionID(e.display)
		}
		if current, taken := owner[id]; taken && current != e.normalized {
			s.log.Warn("keyword_id_conflict",
				zap.String("keyword_id", id),
				zap.String("keyword", logger.SanitizeKeyword(e.display)),
			)
			continue
		}
		if _, ok := existing[id]; !ok {
			added = append(added, e.display)
		}
		owner[id] = e.normalized
		// microsecond steps keep input order as the tie-break among never-used rows
		rows = append(rows, models.PoolKeyword{ID: id, Keyword: e.display, CreatedAt: now.Add(time.Duration(i) * time.Microsecond)})
	}

	if err := s.pool.UpsertKeywords(ctx, rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return nil, fmt.Errorf("failed to seed keyword pool: %w", err)
	}

	metrics.RecordSeeded(len(rows))
	s.log.Info("keyword_pool_seeded",
		zap.Int("keywords", len(rows)),
		zap.Int("added", len(added)),
	)
	return added, nil
}

// SeedPoolFromKeywordQueries seeds the pool with the distinct primary keywords of the most
// recent limit keyword queries. limit defaults to 50 and is capped at 500.
func (s *Service) SeedPoolFromKeywordQueries(ctx context.Context, limit int) (*models.BackfillResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	res, err := s.backfill(ctx, limit)
	if err != nil {
		metrics.RecordBackfill("error")
		return nil, err
	}
	if res.Added == 0 {
		metrics.RecordBackfill("empty")
	} else {
		metrics.RecordBackfill("ok")
	}
	return res, nil
}

func (s *Service) backfill(ctx context.Context, limit int) (*models.BackfillResult, error) {
	ctx, span := s.tracer.Start(ctx, "rotation.backfill")
	defer span.End()

	if limit <= 0 {
		limit = DefaultBackfillLimit
	}
	if limit > MaxBackfillLimit {
		limit = MaxBackfillLimit
	}

	recent, err := s.queries.RecentPrimaryKeywords(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query scan failed")
		return nil, fmt.Errorf("failed to read keyword queries: %w", err)
	}

	var distinct []string
	seen := make(map[string]bool)
	for _, kw := range recent {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		distinct = append(distinct, kw)
	}
	if len(distinct) == 0 {
		return &models.BackfillResult{Added: 0, Keywords: []string{}}, nil
	}

	added, err := s.seed(ctx, distinct)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("rotation.backfill.added", len(added)))
	return &models.BackfillResult{Added: len(added), Keywords: added}, nil
}

// RotateKeywords selects the least recently used keywords for a day, marks them used and
// records the selection. Without Force an existing selection for the day is returned as is.
func (s *Service) RotateKeywords(ctx context.Context, opts RotateOptions) (*models.RotationResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	count := clampCount(opts.Count, s.defaultCount)
	explicit := !opts.Date.IsZero()
	target := opts.Date
	if !explicit {
		target = s.now()
	}
	key := DateKey(target.In(s.loc))

	ctx, span := s.tracer.Start(ctx, "rotation.RotateKeywords", trace.WithAttributes(
		attribute.String("rotation.date", key),
		attribute.Int("rotation.count", count),
		attribute.Bool("rotation.force", opts.Force),
	))
	defer span.End()

	if !opts.Force {
		existing, err := s.days.Get(ctx, key)
		if err != nil {
			metrics.RecordRotation("error", 0)
			span.RecordError(err)
			span.SetStatus(codes.Error, "selection lookup failed")
			return nil, fmt.Errorf("failed to read daily selection: %w", err)
		}
		if existing != nil {
			metrics.RecordRotation("existing", 0)
			return &models.RotationResult{Date: key, Keywords: nonNil(existing.Keywords)}, nil
		}
	}

	candidates, err := s.candidates(ctx, count)
	if err != nil {
		metrics.RecordRotation("error", 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "candidate fetch failed")
		return nil, err
	}

	var seeded *int
	if len(candidates) < count {
		res, err := s.backfill(ctx, DefaultBackfillLimit)
		if err != nil {
			metrics.RecordBackfill("error")
			s.log.Warn("keyword_backfill_failed",
				zap.String("date", key),
				zap.String("error", logger.SanitizeError(err)),
			)
		} else {
			if res.Added == 0 {
				metrics.RecordBackfill("empty")
			} else {
				metrics.RecordBackfill("ok")
			}
			added := res.Added
			seeded = &added
			// one retry only, whatever the outcome
			candidates, err = s.candidates(ctx, count)
			if err != nil {
				metrics.RecordRotation("error", 0)
				span.RecordError(err)
				span.SetStatus(codes.Error, "candidate refetch failed")
				return nil, err
			}
		}
	}

	if len(candidates) > count {
		candidates = candidates[:count]
	}
	if len(candidates) == 0 {
		metrics.RecordRotation("empty", 0)
		s.log.Info("keyword_rotation_empty_pool", zap.String("date", key))
		return &models.RotationResult{Date: key, Keywords: []string{}, Seeded: seeded}, nil
	}

	ids := make([]string, len(candidates))
	names := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
		names[i] = c.Keyword
	}

	var usedAt *time.Time
	if explicit {
		stamp := target
		usedAt = &stamp
	}
	sel := &models.DailySelection{Date: key, Keywords: names}
	if err := s.days.CommitRotation(ctx, sel, ids, usedAt); err != nil {
		metrics.RecordRotation("error", 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return nil, fmt.Errorf("failed to commit rotation: %w", err)
	}

	s.refreshCache(ctx, key, names)

	metrics.RecordRotation("rotated", len(names))
	s.log.Info("keywords_rotated",
		zap.String("date", key),
		zap.Strings("keywords", logger.SanitizeKeywords(names)),
		zap.Bool("force", opts.Force),
	)
	return &models.RotationResult{Date: key, Keywords: names, Seeded: seeded}, nil
}

// refreshCache replaces the cached day after a commit. When the write fails the entry is
// evicted so readers fall through to the database instead of the previous selection.
func (s *Service) refreshCache(ctx context.Context, key string, names []string) {
	if s.cache == nil {
		return
	}
	err := s.cache.Set(ctx, key, names)
	if err == nil {
		return
	}
	s.log.Warn("daily_selection_cache_write_failed",
		zap.String("date", key),
		zap.String("error", logger.SanitizeError(err)),
	)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Error("daily_selection_cache_stale",
			zap.String("date", key),
			zap.String("error", logger.SanitizeError(err)),
		)
	}
}

// candidates reads the least recently used window and orders it deterministically
func (s *Service) candidates(ctx context.Context, count int) ([]*models.PoolKeyword, error) {
	fetch := count
	if fetch < minCandidateFetch {
		fetch = minCandidateFetch
	}
	list, err := s.pool.ListLeastRecentlyUsed(ctx, fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to list rotation candidates: %w", err)
	}
	SortCandidates(list)
	return list, nil
}

// SortCandidates orders keywords never used first, then by oldest last use, breaking
// ties by creation time. The sort is stable.
func SortCandidates(list []*models.PoolKeyword) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch {
		case a.LastUsed == nil && b.LastUsed != nil:
			return true
		case a.LastUsed != nil && b.LastUsed == nil:
			return false
		case a.LastUsed != nil && !a.LastUsed.Equal(*b.LastUsed):
			return a.LastUsed.Before(*b.LastUsed)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// GetActiveKeywordsForDate returns the keywords selected for the day of t (today when t is
// zero). It returns nil when no selection exists and an empty slice when the selection is empty.
func (s *Service) GetActiveKeywordsForDate(ctx context.Context, t time.Time) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	key := s.DateKey(t)

	if s.cache != nil {
		keywords, found, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn("daily_selection_cache_read_failed",
				zap.String("date", key),
				zap.String("error", logger.SanitizeError(err)),
			)
		} else if found {
			return nonNil(keywords), nil
		}
	}

	sel, err := s.days.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read daily selection: %w", err)
	}
	if sel == nil {
		return nil, nil
	}

	keywords := nonNil(sel.Keywords)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, keywords); err != nil {
			s.log.Warn("daily_selection_cache_write_failed",
				zap.String("date", key),
				zap.String("error", logger.SanitizeError(err)),
			)
		}
	}
	return keywords, nil
}

// ListPool returns up to limit pool entries in rotation order
func (s *Service) ListPool(ctx context.Context, limit int) ([]*models.PoolKeyword, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	list, err := s.pool.ListLeastRecentlyUsed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pool: %w", err)
	}
	SortCandidates(list)
	return list, nil
}

// RecordQuery stores a keyword query so later back-fills can draw from it
func (s *Service) RecordQuery(ctx context.Context, primary string, queries []string) error {
	if err := s.ready(); err != nil {
		return err
	}
	primary = strings.TrimSpace(primary)
	if primary == "" {
		return nil
	}
	if err := s.queries.Create(ctx, &models.KeywordQuery{PrimaryKeyword: primary, Queries: queries}); err != nil {
		return fmt.Errorf("failed to record keyword query: %w", err)
	}
	return nil
}

// clampCount maps zero to def and clamps everything else into [1, MaxCount]
func clampCount(n, def int) int {
	if n == 0 {
		n = def
	}
	if n < 1 {
		return 1
	}
	if n > MaxCount {
		return MaxCount
	}
	return n
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
