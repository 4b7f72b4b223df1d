// Package gsc talks to the Search Console proxy. The engine treats it as
// an opaque provider: fetch failures mean "no fresh data", never a fatal
// error, and recrawl requests are best-effort.
package gsc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/serptrack/serptrack/internal/store"
)

// MetricsSource provides periodic stat snapshots for a (page, keyword)
// pair over a fixed lookback window.
type MetricsSource interface {
	FetchStats(ctx context.Context, pageURL, keyword string, lookbackDays int) (*store.StatsSnapshot, error)
}

// Recrawler asks the crawler to refresh cached page content after a
// transition changed what the page should say.
type Recrawler interface {
	RequestRecrawl(ctx context.Context, pageURL string) error
}

// Client is the HTTP implementation of both contracts.
type Client struct {
	baseURL string
	token   string
	siteURL string
	http    *http.Client
}

func NewClient(baseURL, token, siteURL string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		siteURL: siteURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type statsRequest struct {
	SiteURL      string `json:"site_url"`
	PageURL      string `json:"page_url"`
	Keyword      string `json:"keyword"`
	LookbackDays int    `json:"lookback_days"`
}

type statsResponse struct {
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

// FetchStats queries the proxy for the latest snapshot.
func (c *Client) FetchStats(ctx context.Context, pageURL, keyword string, lookbackDays int) (*store.StatsSnapshot, error) {
	var resp statsResponse
	err := c.post(ctx, "/searchanalytics/query", statsRequest{
		SiteURL:      c.siteURL,
		PageURL:      pageURL,
		Keyword:      keyword,
		LookbackDays: lookbackDays,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &store.StatsSnapshot{
		Impressions: resp.Impressions,
		Clicks:      resp.Clicks,
		CTR:         resp.CTR,
		Position:    resp.Position,
		CapturedAt:  time.Now(),
	}, nil
}

// RequestRecrawl asks for a content refresh. Callers must treat failure
// as non-fatal.
func (c *Client) RequestRecrawl(ctx context.Context, pageURL string) error {
	return c.post(ctx, "/recrawl", map[string]string{"page_url": pageURL}, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
