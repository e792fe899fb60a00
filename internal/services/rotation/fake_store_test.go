package rotation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benvon/keyword-rotator/internal/database"
	"github.com/benvon/keyword-rotator/internal/models"
)

// fakeStore is an in-memory stand-in for the three repositories. Its LRU listing mirrors
// ORDER BY last_used ASC NULLS FIRST, created_at ASC.
type fakeStore struct {
	mu      sync.Mutex
	now     func() time.Time
	pool    map[string]*models.PoolKeyword
	days    map[string]*models.DailySelection
	queries []models.KeywordQuery

	listCalls   int
	commitCalls int
	queryLimits []int

	queriesErr error
	listErr    error
}

var (
	_ database.KeywordPoolRepositoryInterface    = (*fakeStore)(nil)
	_ database.DailySelectionRepositoryInterface = (*fakeStore)(nil)
	_ database.KeywordQueryRepositoryInterface   = (*fakeStore)(nil)
)

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{
		now:  now,
		pool: make(map[string]*models.PoolKeyword),
		days: make(map[string]*models.DailySelection),
	}
}

func (f *fakeStore) GetByIDs(_ context.Context, ids []string) (map[string]*models.PoolKeyword, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*models.PoolKeyword)
	for _, id := range ids {
		if kw, ok := f.pool[id]; ok {
			c := *kw
			out[id] = &c
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertKeywords(_ context.Context, keywords []models.PoolKeyword) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, kw := range keywords {
		if existing, ok := f.pool[kw.ID]; ok {
			existing.Keyword = kw.Keyword
			continue
		}
		c := kw
		c.LastUsed = nil
		c.TimesUsed = 0
		f.pool[kw.ID] = &c
	}
	return nil
}

func (f *fakeStore) ListLeastRecentlyUsed(_ context.Context, limit int) ([]*models.PoolKeyword, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	all := make([]*models.PoolKeyword, 0, len(f.pool))
	for _, kw := range f.pool {
		c := *kw
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if (a.LastUsed == nil) != (b.LastUsed == nil) {
			return a.LastUsed == nil
		}
		if a.LastUsed != nil && !a.LastUsed.Equal(*b.LastUsed) {
			return a.LastUsed.Before(*b.LastUsed)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeStore) Get(_ context.Context, date string) (*models.DailySelection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sel, ok := f.days[date]
	if !ok {
		return nil, nil
	}
	c := *sel
	c.Keywords = append([]string{}, sel.Keywords...)
	return &c, nil
}

func (f *fakeStore) CommitRotation(_ context.Context, sel *models.DailySelection, ids []string, usedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitCalls++
	stamp := f.now()
	if usedAt != nil {
		stamp = *usedAt
	}
	for _, id := range ids {
		if kw, ok := f.pool[id]; ok {
			t := stamp
			kw.LastUsed = &t
			kw.TimesUsed++
		}
	}
	sel.CreatedAt = stamp
	c := *sel
	c.Keywords = append([]string{}, sel.Keywords...)
	f.days[sel.Date] = &c
	return nil
}

func (f *fakeStore) Create(_ context.Context, q *models.KeywordQuery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = f.now().Add(time.Duration(len(f.queries)) * time.Second)
	}
	f.queries = append(f.queries, *q)
	return nil
}

func (f *fakeStore) RecentPrimaryKeywords(_ context.Context, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryLimits = append(f.queryLimits, limit)
	if f.queriesErr != nil {
		return nil, f.queriesErr
	}
	sorted := append([]models.KeywordQuery{}, f.queries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	var out []string
	for i, q := range sorted {
		if i >= limit {
			break
		}
		out = append(out, q.PrimaryKeyword)
	}
	return out, nil
}

func (f *fakeStore) timesUsed(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if kw, ok := f.pool[id]; ok {
		return kw.TimesUsed
	}
	return -1
}

// fakeCache is an in-memory SelectionCache
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]string
	gets    int
	deletes int

	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]string)}
}

func (c *fakeCache) Get(_ context.Context, date string) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	kws, ok := c.entries[date]
	return kws, ok, nil
}

func (c *fakeCache) Set(_ context.Context, date string, keywords []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[date] = append([]string{}, keywords...)
	return nil
}

func (c *fakeCache) Delete(_ context.Context, date string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.entries, date)
	return nil
}
