// Package sitemap discovers, parses, and categorizes a site's URL inventory.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Conventional sitemap locations probed when robots.txt declares none.
var conventionalPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemaps/sitemap.xml",
}

var robotsSitemapRe = regexp.MustCompile(`(?i)Sitemap:\s*(https?://\S+)`)

// Config controls discovery timeouts.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	ProbeTimeout time.Duration
}

// Discoverer resolves sitemap locations and walks sitemap indexes.
type Discoverer struct {
	cfg         Config
	client      *http.Client
	probeClient *http.Client
	logger      *zap.Logger
}

// NewDiscoverer builds a Discoverer.
func NewDiscoverer(cfg Config, logger *zap.Logger) *Discoverer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{
		cfg:         cfg,
		client:      &http.Client{Timeout: cfg.Timeout},
		probeClient: &http.Client{Timeout: cfg.ProbeTimeout},
		logger:      logger,
	}
}

// FindSitemapURLs resolves a site's sitemap locations: robots.txt Sitemap
// declarations first, then a probe of conventional paths (first reachable
// wins). An unreachable robots.txt is a warning, not a failure.
func (d *Discoverer) FindSitemapURLs(ctx context.Context, siteURL string) []string {
	base := strings.TrimRight(siteURL, "/")

	if urls := d.fromRobots(ctx, base+"/robots.txt"); len(urls) > 0 {
		return urls
	}

	for _, path := range conventionalPaths {
		candidate := base + path
		if d.probe(ctx, candidate) {
			return []string{candidate}
		}
	}
	return nil
}

func (d *Discoverer) fromRobots(ctx context.Context, robotsURL string) []string {
	body, err := d.get(ctx, robotsURL)
	if err != nil {
		d.logger.Warn("Failed to fetch robots.txt", zap.String("url", robotsURL), zap.Error(err))
		return nil
	}
	var urls []string
	for _, m := range robotsSitemapRe.FindAllStringSubmatch(string(body), -1) {
		urls = append(urls, m[1])
	}
	return urls
}

func (d *Discoverer) probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}
	resp, err := d.probeClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

type locEntry struct {
	Loc string `xml:"loc"`
}

// sitemapDoc covers both document shapes: a sitemapindex carries <sitemap>
// children, a urlset carries <url> children.
type sitemapDoc struct {
	Sitemaps []locEntry `xml:"sitemap"`
	URLs     []locEntry `xml:"url"`
}

// Discover fetches and parses the given sitemaps, recursing through sitemap
// indexes, and returns a deduplicated set of page URLs. Unreachable or
// malformed sitemaps are skipped with a warning; total failure yields an
// empty set.
func (d *Discoverer) Discover(ctx context.Context, sitemapURLs []string) []string {
	seen := make(map[string]struct{})
	visited := make(map[string]struct{})
	var urls []string

	var walk func(sitemapURL string)
	walk = func(sitemapURL string) {
		if _, done := visited[sitemapURL]; done {
			return
		}
		visited[sitemapURL] = struct{}{}

		body, err := d.get(ctx, sitemapURL)
		if err != nil {
			d.logger.Warn("Failed to fetch sitemap", zap.String("url", sitemapURL), zap.Error(err))
			return
		}
		var doc sitemapDoc
		if err := xml.Unmarshal(body, &doc); err != nil {
			d.logger.Warn("Failed to parse sitemap XML", zap.String("url", sitemapURL), zap.Error(err))
			return
		}
		for _, child := range doc.Sitemaps {
			if loc := strings.TrimSpace(child.Loc); loc != "" {
				walk(loc)
			}
		}
		for _, entry := range doc.URLs {
			loc := strings.TrimSpace(entry.Loc)
			if loc == "" {
				continue
			}
			if _, dup := seen[loc]; dup {
				continue
			}
			seen[loc] = struct{}{}
			urls = append(urls, loc)
		}
	}

	for _, sitemapURL := range sitemapURLs {
		walk(sitemapURL)
	}
	return urls
}

func (d *Discoverer) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
