package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
	"github.com/bct-dk/siteanalyzer/internal/sitemap"
)

// runSitemap walks the discovered sitemaps, persists the URL inventory, and
// schedules the lighthouse and SEO batches over sampled pages. Failures mark
// the website sitemap_failed and re-raise for retry.
func (r *Runner) runSitemap(ctx context.Context, task analyzer.Task) error {
	store := r.deps.Store
	website, err := store.GetWebsite(ctx, task.WebsiteID)
	if err != nil {
		return err
	}
	logger := r.deps.Logger.With(zap.Int64("website_id", website.ID), zap.String("slug", website.Slug))

	if err := store.SetStatus(ctx, website.ID, analyzer.StatusAnalyzingSitemap); err != nil {
		return err
	}

	if err := r.analyzeSitemap(ctx, website, task.URLs, logger); err != nil {
		if setErr := store.SetStatus(ctx, website.ID, analyzer.StatusSitemapFailed); setErr != nil {
			logger.Error("status update failed", zap.Error(setErr))
		}
		r.completeStage(ctx, website.ID, analyzer.StageSitemap, analyzer.StageFailed)
		return err
	}

	if err := store.SetStatus(ctx, website.ID, analyzer.StatusSitemapAnalyzed); err != nil {
		return err
	}
	r.completeStage(ctx, website.ID, analyzer.StageSitemap, analyzer.StageSucceeded)
	return nil
}

func (r *Runner) analyzeSitemap(ctx context.Context, website analyzer.Website, sitemapURLs []string, logger *zap.Logger) error {
	urls := r.deps.Discoverer.Discover(ctx, sitemapURLs)

	counts := sitemap.Categorize(urls)
	data := analyzer.SitemapData{
		TotalPages:   len(urls),
		Categories:   counts,
		LastAnalyzed: r.deps.Clock.Now(),
	}
	if err := r.deps.Store.SetSitemapData(ctx, website.ID, data); err != nil {
		return err
	}
	logger.Info("sitemap categorized",
		zap.Int("total_pages", data.TotalPages),
		zap.Int("categories", len(counts)))

	if len(urls) == 0 {
		// Nothing to sample; the batch stages are never dispatched, so they
		// do not count toward completion.
		logger.Info("no sitemap URLs discovered, skipping page batches")
		return nil
	}

	primary := sitemap.Sample(urls, r.cfg.SampleCap)
	for _, u := range primary {
		if err := r.deps.Store.UpsertPage(ctx, website.ID, u, sitemap.Classify(u)); err != nil {
			return err
		}
	}

	lighthouseTask := analyzer.Task{WebsiteID: website.ID, Stage: analyzer.StageLighthouse, URLs: primary}
	if err := r.dispatch(ctx, lighthouseTask, r.cfg.LighthouseBatchDelay); err != nil {
		return err
	}

	var seoSample []string
	for _, group := range sitemap.SampleByCategory(urls, r.cfg.CategorySampleCap) {
		seoSample = append(seoSample, group...)
	}
	seoTask := analyzer.Task{WebsiteID: website.ID, Stage: analyzer.StageSEOBatch, URLs: seoSample}
	if err := r.dispatch(ctx, seoTask, r.cfg.SEOBatchDelay); err != nil {
		return err
	}

	logger.Info("page batches dispatched",
		zap.Int("lighthouse_pages", len(primary)),
		zap.Int("seo_pages", len(seoSample)))
	return nil
}
