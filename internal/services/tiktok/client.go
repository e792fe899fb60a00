package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	searchPath      = "/api/search/video"
	maxResponseSize = 8 << 20
)

// Client searches TikTok videos through a RapidAPI scraper host
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	host        string
	apiKey      string
}

// NewClient creates a RapidAPI TikTok client.
// Rate limited to one request per second with a burst of 3.
func NewClient(apiKey, host string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 3),
		baseURL:     "https://" + host,
		host:        host,
		apiKey:      apiKey,
	}
}

var _ Searcher = (*Client)(nil)

// Search returns the first page of videos for keyword
func (c *Client) Search(ctx context.Context, keyword string, count int) (*SearchResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("tiktok search is not configured")
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("cursor", "0")
	params.Set("search_id", "0")
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: status %d", resp.StatusCode)
	}

	var out SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &out, nil
}
