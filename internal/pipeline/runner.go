// Package pipeline orchestrates website analysis stages. The website stage
// fans out to sitemap, SEO, lighthouse, and company stages through the
// scheduler; each stage writes only the columns it owns and reports its
// terminal state for completion tracking.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
	"github.com/bct-dk/siteanalyzer/internal/metrics"
	"github.com/bct-dk/siteanalyzer/internal/sitemap"
)

// SEOAnalyzer produces a page-level SEO report.
type SEOAnalyzer interface {
	AnalyzePage(ctx context.Context, siteURL, pageURL string) analyzer.Outcome[analyzer.SEOReport]
}

// SiteSearcher returns the site's top pages from an external search index.
type SiteSearcher interface {
	TopPages(ctx context.Context, siteURL string) analyzer.Outcome[[]analyzer.SearchResult]
}

// PerformanceAnalyzer scores pages and aggregates batch results.
type PerformanceAnalyzer interface {
	AnalyzePages(ctx context.Context, urls []string) (map[string]analyzer.LighthouseResult, error)
	Aggregate(results []analyzer.LighthouseResult) *analyzer.LighthouseSummary
}

// CompanyLookup resolves a CVR number to a company record.
type CompanyLookup interface {
	Lookup(ctx context.Context, cvr string) analyzer.Outcome[analyzer.Company]
}

// Discoverer finds and walks sitemaps.
type Discoverer interface {
	FindSitemapURLs(ctx context.Context, siteURL string) []string
	Discover(ctx context.Context, sitemapURLs []string) []string
}

// Config controls sampling caps and stage dispatch delays.
type Config struct {
	SampleCap         int
	CategorySampleCap int
	SeoPageDelay      time.Duration

	CompanyDelay         time.Duration
	SitemapDelay         time.Duration
	HomepageSEODelay     time.Duration
	LighthouseBatchDelay time.Duration
	SEOBatchDelay        time.Duration
}

func (c Config) withDefaults() Config {
	if c.SampleCap <= 0 {
		c.SampleCap = 25
	}
	if c.CategorySampleCap <= 0 {
		c.CategorySampleCap = 5
	}
	if c.SeoPageDelay <= 0 {
		c.SeoPageDelay = time.Second
	}
	if c.CompanyDelay <= 0 {
		c.CompanyDelay = 2 * time.Second
	}
	if c.SitemapDelay <= 0 {
		c.SitemapDelay = 5 * time.Second
	}
	if c.HomepageSEODelay <= 0 {
		c.HomepageSEODelay = 10 * time.Second
	}
	if c.LighthouseBatchDelay <= 0 {
		c.LighthouseBatchDelay = 10 * time.Second
	}
	if c.SEOBatchDelay <= 0 {
		c.SEOBatchDelay = 15 * time.Second
	}
	return c
}

// Deps bundles the collaborators a Runner needs.
type Deps struct {
	Store      analyzer.Store
	Scheduler  analyzer.Scheduler
	Fetcher    analyzer.Fetcher
	Blob       analyzer.BlobStore
	Publisher  analyzer.Publisher
	Discoverer Discoverer
	SEO        SEOAnalyzer
	SiteSearch SiteSearcher
	Lighthouse PerformanceAnalyzer
	Company    CompanyLookup
	Clock      analyzer.Clock
	Logger     *zap.Logger
}

// Runner executes pipeline stage tasks.
type Runner struct {
	deps       Deps
	cfg        Config
	seoLimiter *rate.Limiter
}

// NewRunner constructs a Runner.
func NewRunner(deps Deps, cfg Config) *Runner {
	cfg = cfg.withDefaults()
	return &Runner{
		deps:       deps,
		cfg:        cfg,
		seoLimiter: rate.NewLimiter(rate.Every(cfg.SeoPageDelay), 1),
	}
}

// Run executes one stage task. A returned error signals the dispatcher to
// retry; stages whose failures are terminal return nil after recording them.
func (r *Runner) Run(ctx context.Context, task analyzer.Task) error {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	start := r.deps.Clock.Now()
	var err error
	switch task.Stage {
	case analyzer.StageWebsite:
		err = r.runWebsite(ctx, task)
	case analyzer.StageSitemap:
		err = r.runSitemap(ctx, task)
	case analyzer.StageSEO, analyzer.StageSEOBatch:
		err = r.runSEO(ctx, task)
	case analyzer.StageLighthouse:
		err = r.runLighthouse(ctx, task)
	case analyzer.StageCompany:
		err = r.runCompany(ctx, task)
	default:
		err = fmt.Errorf("unknown stage %q", task.Stage)
	}

	result := "succeeded"
	if err != nil {
		result = "failed"
	}
	metrics.ObserveStageRun(string(task.Stage), result, r.deps.Clock.Now().Sub(start))
	return err
}

// completeStage records the terminal state of a stage and finishes the
// website when every dispatched stage has reported.
func (r *Runner) completeStage(ctx context.Context, websiteID int64, stage analyzer.Stage, state analyzer.StageState) {
	stages, err := r.deps.Store.CompleteStage(ctx, websiteID, stage, state)
	if err != nil {
		r.deps.Logger.Error("stage completion update failed",
			zap.Int64("website_id", websiteID),
			zap.String("stage", string(stage)),
			zap.Error(err))
		return
	}

	allSucceeded := true
	for _, s := range stages {
		switch s {
		case analyzer.StageDispatched:
			return
		case analyzer.StageFailed:
			allSucceeded = false
		}
	}

	if allSucceeded {
		if err := r.deps.Store.SetStatus(ctx, websiteID, analyzer.StatusCompleted); err != nil {
			r.deps.Logger.Error("completion status update failed", zap.Int64("website_id", websiteID), zap.Error(err))
			return
		}
	}
	if err := r.deps.Store.MarkProcessed(ctx, websiteID); err != nil {
		r.deps.Logger.Error("mark processed failed", zap.Int64("website_id", websiteID), zap.Error(err))
		return
	}

	website, err := r.deps.Store.GetWebsite(ctx, websiteID)
	if err != nil {
		r.deps.Logger.Error("load website for completion event failed", zap.Int64("website_id", websiteID), zap.Error(err))
		return
	}
	event := analyzer.CompletionEvent{
		WebsiteID: websiteID,
		Slug:      website.Slug,
		Status:    website.Status,
		At:        r.deps.Clock.Now(),
	}
	if err := r.deps.Publisher.Publish(ctx, event); err != nil {
		r.deps.Logger.Warn("completion event publish failed", zap.Int64("website_id", websiteID), zap.Error(err))
	}
	r.deps.Logger.Info("analysis finished",
		zap.Int64("website_id", websiteID),
		zap.String("slug", website.Slug),
		zap.String("status", string(website.Status)))
}

// dispatch marks the stage as pending and schedules it.
func (r *Runner) dispatch(ctx context.Context, task analyzer.Task, delay time.Duration) error {
	if err := r.deps.Store.MarkStageDispatched(ctx, task.WebsiteID, task.Stage); err != nil {
		return fmt.Errorf("mark %s dispatched: %w", task.Stage, err)
	}
	if err := r.deps.Scheduler.Schedule(ctx, task, delay); err != nil {
		return fmt.Errorf("schedule %s: %w", task.Stage, err)
	}
	return nil
}

// ensurePage guarantees a page row exists before a per-page update. Homepage
// tasks reference a URL the sampler never created a row for.
func (r *Runner) ensurePage(ctx context.Context, websiteID int64, url string) error {
	return r.deps.Store.UpsertPage(ctx, websiteID, url, sitemap.Classify(url))
}
