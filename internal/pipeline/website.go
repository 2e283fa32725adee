package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
	"github.com/bct-dk/siteanalyzer/internal/company"
	"github.com/bct-dk/siteanalyzer/internal/seo"
)

// runWebsite is the orchestrator stage: it fetches the homepage, persists
// basic signals, and fans out the remaining stages. Fetch failures mark the
// website failed and re-raise so the dispatcher retries the whole stage.
func (r *Runner) runWebsite(ctx context.Context, task analyzer.Task) error {
	store := r.deps.Store
	website, err := store.GetWebsite(ctx, task.WebsiteID)
	if err != nil {
		return err
	}
	logger := r.deps.Logger.With(zap.Int64("website_id", website.ID), zap.String("slug", website.Slug))
	logger.Info("website analysis started", zap.String("url", website.URL))

	if err := store.SetStatus(ctx, website.ID, analyzer.StatusAnalyzingWebsite); err != nil {
		return err
	}

	result, err := r.deps.Fetcher.Fetch(ctx, website.URL)
	if err == nil && (result.StatusCode < 200 || result.StatusCode > 299) {
		err = fmt.Errorf("homepage returned status %d", result.StatusCode)
	}
	if err != nil {
		logger.Error("homepage fetch failed", zap.Error(err))
		if setErr := store.SetStatus(ctx, website.ID, analyzer.StatusFailed); setErr != nil {
			logger.Error("status update failed", zap.Error(setErr))
		}
		return fmt.Errorf("fetch homepage: %w", err)
	}

	signals := seo.BasicSignals(result.Body)
	if err := store.MergeWebsiteSEO(ctx, website.ID, signals); err != nil {
		return err
	}

	r.archiveSnapshot(ctx, website, result.Body)

	cvr := company.DetectCVR(string(result.Body))
	if cvr != "" {
		logger.Info("CVR number detected", zap.String("cvr", cvr))
	}

	sitemapURLs := r.deps.Discoverer.FindSitemapURLs(ctx, website.URL)
	logger.Info("sitemap discovery finished", zap.Int("sitemaps", len(sitemapURLs)))

	if err := store.SetStatus(ctx, website.ID, analyzer.StatusDispatchingJobs); err != nil {
		return err
	}

	if cvr != "" {
		task := analyzer.Task{WebsiteID: website.ID, Stage: analyzer.StageCompany, CVR: cvr}
		if err := r.dispatch(ctx, task, r.cfg.CompanyDelay); err != nil {
			return err
		}
	}
	if len(sitemapURLs) > 0 {
		sitemapTask := analyzer.Task{WebsiteID: website.ID, Stage: analyzer.StageSitemap, URLs: sitemapURLs}
		if err := r.dispatch(ctx, sitemapTask, r.cfg.SitemapDelay); err != nil {
			return err
		}
	}
	seoTask := analyzer.Task{WebsiteID: website.ID, Stage: analyzer.StageSEO, URLs: []string{website.URL}}
	if err := r.dispatch(ctx, seoTask, r.cfg.HomepageSEODelay); err != nil {
		return err
	}

	logger.Info("analysis jobs dispatched")
	return nil
}

// archiveSnapshot stores the raw homepage HTML. Archive failures never block
// the pipeline.
func (r *Runner) archiveSnapshot(ctx context.Context, website analyzer.Website, body []byte) {
	key := fmt.Sprintf("snapshots/%s/homepage.html", website.Slug)
	uri, err := r.deps.Blob.Put(ctx, key, "text/html; charset=utf-8", body)
	if err != nil {
		r.deps.Logger.Warn("homepage snapshot archive failed",
			zap.Int64("website_id", website.ID),
			zap.Error(err))
		return
	}
	if uri != "" {
		r.deps.Logger.Debug("homepage snapshot archived",
			zap.Int64("website_id", website.ID),
			zap.String("uri", uri))
	}
}
