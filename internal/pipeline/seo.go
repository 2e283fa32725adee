package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
	"github.com/bct-dk/siteanalyzer/internal/metrics"
)

// runSEO analyzes a batch of pages for on-page SEO signals. Per-page failures
// are recorded and skipped; the stage itself never re-raises, so a bad batch
// ends in seo_failed rather than a retry loop.
func (r *Runner) runSEO(ctx context.Context, task analyzer.Task) error {
	store := r.deps.Store
	website, err := store.GetWebsite(ctx, task.WebsiteID)
	if err != nil {
		return err
	}
	logger := r.deps.Logger.With(zap.Int64("website_id", website.ID), zap.String("slug", website.Slug))

	if err := store.SetStatus(ctx, website.ID, analyzer.StatusAnalyzingSEO); err != nil {
		return err
	}

	fields := map[string]any{}
	if r.deps.SiteSearch != nil {
		outcome := r.deps.SiteSearch.TopPages(ctx, website.URL)
		metrics.ObserveExternalCall("site_search", string(outcome.Status()))
		switch {
		case outcome.IsOk():
			fields["top_pages"] = outcome.Value()
		case outcome.IsSkipped():
			logger.Debug("site search skipped", zap.String("reason", outcome.Reason()))
		default:
			logger.Warn("site search failed", zap.Error(outcome.Err()))
		}
	}

	analyzed := 0
	for _, pageURL := range task.URLs {
		if err := r.seoLimiter.Wait(ctx); err != nil {
			return err
		}
		outcome := r.deps.SEO.AnalyzePage(ctx, website.URL, pageURL)
		switch {
		case outcome.IsOk():
			if err := r.ensurePage(ctx, website.ID, pageURL); err != nil {
				logger.Error("page upsert failed", zap.String("url", pageURL), zap.Error(err))
				continue
			}
			if err := store.UpdatePageSEO(ctx, website.ID, pageURL, outcome.Value()); err != nil {
				logger.Error("page SEO update failed", zap.String("url", pageURL), zap.Error(err))
				continue
			}
			metrics.ObservePageAnalyzed(pageURL, "seo")
			analyzed++
		case outcome.IsSkipped():
			logger.Info("page skipped", zap.String("url", pageURL), zap.String("reason", outcome.Reason()))
		default:
			logger.Warn("page analysis failed", zap.String("url", pageURL), zap.Error(outcome.Err()))
		}
	}

	fields["analyzed_pages"] = analyzed
	fields["last_seo_analysis"] = r.deps.Clock.Now()
	if err := store.MergeWebsiteSEO(ctx, website.ID, fields); err != nil {
		return err
	}

	status := analyzer.StatusSEOAnalyzed
	state := analyzer.StageSucceeded
	if analyzed == 0 && len(task.URLs) > 0 {
		status = analyzer.StatusSEOFailed
		state = analyzer.StageFailed
	}
	if err := store.SetStatus(ctx, website.ID, status); err != nil {
		return err
	}
	r.completeStage(ctx, website.ID, task.Stage, state)

	logger.Info("SEO batch finished",
		zap.Int("requested", len(task.URLs)),
		zap.Int("analyzed", analyzed))
	return nil
}
