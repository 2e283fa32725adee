package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
	"github.com/bct-dk/siteanalyzer/internal/metrics"
)

// runLighthouse scores a batch of pages and aggregates the results into the
// website summary. A batch with zero successful pages ends in
// lighthouse_failed; the stage never re-raises.
func (r *Runner) runLighthouse(ctx context.Context, task analyzer.Task) error {
	store := r.deps.Store
	website, err := store.GetWebsite(ctx, task.WebsiteID)
	if err != nil {
		return err
	}
	logger := r.deps.Logger.With(zap.Int64("website_id", website.ID), zap.String("slug", website.Slug))

	if err := store.SetStatus(ctx, website.ID, analyzer.StatusAnalyzingLighthouse); err != nil {
		return err
	}

	results, err := r.deps.Lighthouse.AnalyzePages(ctx, task.URLs)
	if err != nil {
		// Only context cancellation aborts a batch mid-way.
		return err
	}

	batch := make([]analyzer.LighthouseResult, 0, len(results))
	for pageURL, result := range results {
		if err := r.ensurePage(ctx, website.ID, pageURL); err != nil {
			logger.Error("page upsert failed", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		if err := store.UpdatePageLighthouse(ctx, website.ID, pageURL, result, result.AnalyzedAt); err != nil {
			logger.Error("page lighthouse update failed", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		metrics.ObservePageAnalyzed(pageURL, "lighthouse")
		batch = append(batch, result)
	}

	status := analyzer.StatusLighthouseAnalyzed
	state := analyzer.StageSucceeded
	if summary := r.deps.Lighthouse.Aggregate(batch); summary != nil {
		if err := store.SetLighthouseSummary(ctx, website.ID, *summary); err != nil {
			return err
		}
		logger.Info("lighthouse summary written",
			zap.Int("performance", summary.Performance),
			zap.Int("pages_analyzed", summary.PagesAnalyzed))
	} else {
		status = analyzer.StatusLighthouseFailed
		state = analyzer.StageFailed
		logger.Warn("no lighthouse results for batch", zap.Int("requested", len(task.URLs)))
	}

	if err := store.SetStatus(ctx, website.ID, status); err != nil {
		return err
	}
	r.completeStage(ctx, website.ID, analyzer.StageLighthouse, state)
	return nil
}
