package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
	"github.com/bct-dk/siteanalyzer/internal/metrics"
)

// runCompany resolves the detected CVR number against the business registry.
// Lookup failures leave the website without company data and never re-raise.
func (r *Runner) runCompany(ctx context.Context, task analyzer.Task) error {
	store := r.deps.Store
	logger := r.deps.Logger.With(zap.Int64("website_id", task.WebsiteID), zap.String("cvr", task.CVR))

	if err := store.SetStatus(ctx, task.WebsiteID, analyzer.StatusAnalyzingCompany); err != nil {
		return err
	}

	outcome := r.deps.Company.Lookup(ctx, task.CVR)
	metrics.ObserveExternalCall("business_registry", string(outcome.Status()))
	if !outcome.IsOk() {
		if outcome.IsFailed() {
			logger.Warn("company lookup failed", zap.Error(outcome.Err()))
		} else {
			logger.Info("company lookup skipped", zap.String("reason", outcome.Reason()))
		}
		r.completeStage(ctx, task.WebsiteID, analyzer.StageCompany, analyzer.StageFailed)
		return nil
	}

	record := outcome.Value()
	if err := store.SetCompany(ctx, task.WebsiteID, record); err != nil {
		return err
	}
	if err := store.SetStatus(ctx, task.WebsiteID, analyzer.StatusCompanyAnalyzed); err != nil {
		return err
	}
	r.completeStage(ctx, task.WebsiteID, analyzer.StageCompany, analyzer.StageSucceeded)

	logger.Info("company data stored", zap.String("name", record.Name))
	return nil
}
