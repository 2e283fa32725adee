package lighthouse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// PageSpeedConfig holds the hosted scoring API settings.
type PageSpeedConfig struct {
	APIKey   string
	Endpoint string
	Strategy string
	Timeout  time.Duration
}

// PageSpeed scores pages through the hosted PageSpeed Insights API. Calls
// without an API key are skipped rather than failed so the pipeline can fall
// back to a local runner.
type PageSpeed struct {
	cfg    PageSpeedConfig
	client *http.Client
	clock  analyzer.Clock
	logger *zap.Logger
}

// NewPageSpeed builds a hosted-API source.
func NewPageSpeed(cfg PageSpeedConfig, clock analyzer.Clock, logger *zap.Logger) *PageSpeed {
	if cfg.Strategy == "" {
		cfg.Strategy = "mobile"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &PageSpeed{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		clock:  clock,
		logger: logger,
	}
}

// Name identifies this source in logs and result records.
func (p *PageSpeed) Name() string { return "pagespeed_insights" }

// Available reports whether the source can be used at all.
func (p *PageSpeed) Available() bool { return p.cfg.APIKey != "" }

// Analyze scores a single page. A missing API key yields a skipped outcome;
// transport and decode errors yield failures.
func (p *PageSpeed) Analyze(ctx context.Context, pageURL string) analyzer.Outcome[analyzer.LighthouseResult] {
	if p.cfg.APIKey == "" {
		return analyzer.Skipped[analyzer.LighthouseResult]("pagespeed API key not configured")
	}

	q := url.Values{}
	q.Set("url", pageURL)
	q.Set("key", p.cfg.APIKey)
	q.Set("strategy", p.cfg.Strategy)
	q["category"] = []string{"performance", "accessibility", "best-practices", "seo"}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return analyzer.Failed[analyzer.LighthouseResult](err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return analyzer.Failed[analyzer.LighthouseResult](fmt.Errorf("pagespeed request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return analyzer.Failed[analyzer.LighthouseResult](fmt.Errorf("pagespeed status %d: %s", resp.StatusCode, body))
	}

	var payload pagespeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return analyzer.Failed[analyzer.LighthouseResult](fmt.Errorf("pagespeed decode: %w", err))
	}

	result := payload.LighthouseResult.toResult()
	result.Source = p.Name()
	result.AnalyzedAt = p.clock.Now()
	p.logger.Debug("pagespeed analysis complete",
		zap.String("url", pageURL),
		zap.Int("performance", result.Performance))
	return analyzer.Ok(result)
}

// pagespeedResponse mirrors the subset of the Insights payload we read. The
// hosted API and the local CLI share the lighthouseResult shape.
type pagespeedResponse struct {
	LighthouseResult lighthouseReport `json:"lighthouseResult"`
}

type lighthouseReport struct {
	Categories map[string]struct {
		Score float64 `json:"score"`
	} `json:"categories"`
	Audits map[string]struct {
		NumericValue float64 `json:"numericValue"`
	} `json:"audits"`
}

// metricAudits maps audit IDs to the metric keys exposed on results. Values
// arrive in milliseconds except cumulative layout shift, which is unitless.
var metricAudits = map[string]string{
	"first-contentful-paint":   "first_contentful_paint",
	"largest-contentful-paint": "largest_contentful_paint",
	"cumulative-layout-shift":  "cumulative_layout_shift",
	"speed-index":              "speed_index",
	"total-blocking-time":      "total_blocking_time",
}

func (r lighthouseReport) toResult() analyzer.LighthouseResult {
	out := analyzer.LighthouseResult{
		Performance:   categoryScore(r.Categories, "performance"),
		Accessibility: categoryScore(r.Categories, "accessibility"),
		BestPractices: categoryScore(r.Categories, "best-practices"),
		SEO:           categoryScore(r.Categories, "seo"),
		Metrics:       make(map[string]float64, len(metricAudits)),
	}
	for auditID, key := range metricAudits {
		audit, ok := r.Audits[auditID]
		if !ok {
			continue
		}
		if auditID == "cumulative-layout-shift" {
			out.Metrics[key] = math.Round(audit.NumericValue*1000) / 1000
			continue
		}
		out.Metrics[key] = math.Round(audit.NumericValue/1000*100) / 100
	}
	return out
}

func categoryScore(categories map[string]struct {
	Score float64 `json:"score"`
}, name string) int {
	cat, ok := categories[name]
	if !ok {
		return 0
	}
	return int(math.Round(cat.Score * 100))
}
