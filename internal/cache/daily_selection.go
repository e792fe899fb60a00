package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dailySelectionKeyPrefix = "keyword_rotation:day:"
	// DefaultDailySelectionTTL keeps yesterday's selection around for late readers in other zones
	DefaultDailySelectionTTL = 48 * time.Hour
)

// DailySelectionCache caches the keyword list of a date key in Redis
type DailySelectionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDailySelectionCache creates a cache backed by client. A non-positive ttl uses DefaultDailySelectionTTL.
func NewDailySelectionCache(client *redis.Client, ttl time.Duration) *DailySelectionCache {
	if ttl <= 0 {
		ttl = DefaultDailySelectionTTL
	}
	return &DailySelectionCache{client: client, ttl: ttl}
}

// Key returns the Redis key for a date key
func Key(date string) string {
	return dailySelectionKeyPrefix + date
}

// Get returns the cached keywords for date. found is false on a cache miss.
func (c *DailySelectionCache) Get(ctx context.Context, date string) (keywords []string, found bool, err error) {
	raw, err := c.client.Get(ctx, Key(date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached selection: %w", err)
	}
	if err := json.Unmarshal(raw, &keywords); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached selection: %w", err)
	}
	if keywords == nil {
		keywords = []string{}
	}
	return keywords, true, nil
}

// Set stores keywords for date
func (c *DailySelectionCache) Set(ctx context.Context, date string, keywords []string) error {
	if keywords == nil {
		keywords = []string{}
	}
	raw, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("failed to encode selection: %w", err)
	}
	if err := c.client.Set(ctx, Key(date), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache selection: %w", err)
	}
	return nil
}

// Delete drops the cached entry for date
func (c *DailySelectionCache) Delete(ctx context.Context, date string) error {
	if err := c.client.Del(ctx, Key(date)).Err(); err != nil {
		return fmt.Errorf("failed to evict cached selection: %w", err)
	}
	return nil
}
