package seo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// SiteSearchConfig holds the external site-search API settings.
type SiteSearchConfig struct {
	APIKey   string
	EngineID string
	Endpoint string
	Timeout  time.Duration
}

// SiteSearch finds a site's top externally ranked pages via a custom-search
// API. It is best-effort: missing credentials produce a skipped outcome.
type SiteSearch struct {
	cfg    SiteSearchConfig
	client *http.Client
	logger *zap.Logger
}

// NewSiteSearch builds a SiteSearch client.
func NewSiteSearch(cfg SiteSearchConfig, logger *zap.Logger) *SiteSearch {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SiteSearch{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type searchResponse struct {
	Items []struct {
		Link    string `json:"link"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// TopPages queries the search API with a site: restriction and returns the
// top-ranked results for the website's domain.
func (s *SiteSearch) TopPages(ctx context.Context, siteURL string) analyzer.Outcome[[]analyzer.SearchResult] {
	if s.cfg.APIKey == "" || s.cfg.EngineID == "" {
		return analyzer.Skipped[[]analyzer.SearchResult]("site search API not configured")
	}

	parsed, err := url.Parse(siteURL)
	if err != nil || parsed.Hostname() == "" {
		return analyzer.Failed[[]analyzer.SearchResult](fmt.Errorf("parse site url %q: %w", siteURL, err))
	}

	q := url.Values{}
	q.Set("key", s.cfg.APIKey)
	q.Set("cx", s.cfg.EngineID)
	q.Set("q", "site:"+parsed.Hostname())
	q.Set("num", "10")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return analyzer.Failed[[]analyzer.SearchResult](fmt.Errorf("build search request: %w", err))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return analyzer.Failed[[]analyzer.SearchResult](fmt.Errorf("site search: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return analyzer.Failed[[]analyzer.SearchResult](fmt.Errorf("site search: status %d", resp.StatusCode))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return analyzer.Failed[[]analyzer.SearchResult](fmt.Errorf("decode search response: %w", err))
	}

	results := make([]analyzer.SearchResult, 0, len(payload.Items))
	for _, item := range payload.Items {
		results = append(results, analyzer.SearchResult{
			URL:     item.Link,
			Title:   item.Title,
			Snippet: item.Snippet,
		})
	}
	return analyzer.Ok(results)
}
