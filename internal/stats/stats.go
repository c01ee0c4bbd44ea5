// Package stats reads dashboard statistics from the backend. The backend's
// statistics endpoint is slow and occasionally down, so reads run under a
// hard timeout and fall back to the last cached snapshot instead of failing
// the caller.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hungg523/helpdesk-assistant/internal/metrics"
)

// DefaultTimeout bounds one statistics request.
const DefaultTimeout = 10 * time.Second

// Overview is the aggregated dashboard payload.
type Overview struct {
	TotalSessions int           `json:"totalSessions"`
	TotalMessages int           `json:"totalMessages"`
	ActiveUsers   int           `json:"activeUsers"`
	AvgResponseMs float64       `json:"avgResponseMs"`
	ByModule      []ModuleCount `json:"byModule"`
	From          string        `json:"from,omitempty"`
	To            string        `json:"to,omitempty"`
}

// ModuleCount is per-module session volume.
type ModuleCount struct {
	Module   string `json:"module"`
	Sessions int    `json:"sessions"`
}

// Client fetches statistics with cached fallback.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *Cache
	metrics    *metrics.Collector
	log        *slog.Logger
}

// Options configures a stats client. Cache may be nil to disable fallback.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Cache   *Cache
	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// New creates a statistics client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		cache:      opts.Cache,
		metrics:    opts.Metrics,
		log:        opts.Logger,
	}
}

// Overview fetches statistics for the date range. On failure it returns the
// cached snapshot with stale=true; the error is returned only when there is
// nothing to fall back to.
func (c *Client) Overview(ctx context.Context, from, to string) (*Overview, bool, error) {
	start := time.Now()
	ov, err := c.fetch(ctx, from, to)
	c.metrics.Record(metrics.OpStatistics, time.Since(start), err)

	if err == nil {
		if c.cache != nil {
			if cerr := c.cache.Put(from, to, ov); cerr != nil {
				c.log.Warn("cache statistics failed", "error", cerr)
			}
		}
		return ov, false, nil
	}

	c.log.Warn("statistics fetch failed, trying cache", "error", err)
	if c.cache != nil {
		if cached, cerr := c.cache.Get(from, to); cerr == nil && cached != nil {
			return cached, true, nil
		}
	}
	return nil, false, err
}

func (c *Client) fetch(ctx context.Context, from, to string) (*Overview, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	endpoint := c.baseURL + "/api/Chat/statistics"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch statistics: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read statistics: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("statistics status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// The endpoint may wrap the payload in {data: ...} like the chat API.
	var wrapped struct {
		Data *Overview `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}

	var ov Overview
	if err := json.Unmarshal(body, &ov); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	return &ov, nil
}
