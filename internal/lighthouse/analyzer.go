package lighthouse

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// Source scores a single page. Implementations report themselves unavailable
// through skipped outcomes so the analyzer can fall through to the next one.
type Source interface {
	Name() string
	Analyze(ctx context.Context, pageURL string) analyzer.Outcome[analyzer.LighthouseResult]
}

// Analyzer runs performance scoring across a batch of pages, trying sources
// in order and pacing requests to stay under external API quotas.
type Analyzer struct {
	sources []Source
	limiter *rate.Limiter
	clock   analyzer.Clock
	logger  *zap.Logger
}

// New builds an analyzer over the given sources. pageDelay is the minimum gap
// between page analyses.
func New(sources []Source, pageDelay time.Duration, clock analyzer.Clock, logger *zap.Logger) *Analyzer {
	if pageDelay <= 0 {
		pageDelay = 2 * time.Second
	}
	return &Analyzer{
		sources: sources,
		limiter: rate.NewLimiter(rate.Every(pageDelay), 1),
		clock:   clock,
		logger:  logger,
	}
}

// AnalyzePage tries each source in order. The first ok outcome wins; skipped
// sources fall through, and a failure is only surfaced when no later source
// produces a result.
func (a *Analyzer) AnalyzePage(ctx context.Context, pageURL string) analyzer.Outcome[analyzer.LighthouseResult] {
	var lastFailure *analyzer.Outcome[analyzer.LighthouseResult]
	for _, src := range a.sources {
		outcome := src.Analyze(ctx, pageURL)
		switch {
		case outcome.IsOk():
			return outcome
		case outcome.IsSkipped():
			a.logger.Debug("performance source skipped",
				zap.String("source", src.Name()),
				zap.String("reason", outcome.Reason()))
		default:
			a.logger.Warn("performance source failed",
				zap.String("source", src.Name()),
				zap.String("url", pageURL),
				zap.Error(outcome.Err()))
			lastFailure = &outcome
		}
	}
	if lastFailure != nil {
		return *lastFailure
	}
	return analyzer.Skipped[analyzer.LighthouseResult]("no performance source available")
}

// AnalyzePages scores each URL in order, pacing between pages. Failed and
// skipped pages are dropped from the returned map.
func (a *Analyzer) AnalyzePages(ctx context.Context, urls []string) (map[string]analyzer.LighthouseResult, error) {
	results := make(map[string]analyzer.LighthouseResult, len(urls))
	for _, u := range urls {
		if err := a.limiter.Wait(ctx); err != nil {
			return results, err
		}
		outcome := a.AnalyzePage(ctx, u)
		if outcome.IsOk() {
			results[u] = outcome.Value()
		}
	}
	return results, nil
}

// Aggregate folds per-page results into a website-level summary using rounded
// means. An empty batch yields nil so callers never persist a zeroed summary.
func (a *Analyzer) Aggregate(results []analyzer.LighthouseResult) *analyzer.LighthouseSummary {
	if len(results) == 0 {
		return nil
	}
	var perf, access, best, seo int
	for _, r := range results {
		perf += r.Performance
		access += r.Accessibility
		best += r.BestPractices
		seo += r.SEO
	}
	n := float64(len(results))
	return &analyzer.LighthouseSummary{
		Performance:   roundMean(perf, n),
		Accessibility: roundMean(access, n),
		BestPractices: roundMean(best, n),
		SEO:           roundMean(seo, n),
		PagesAnalyzed: len(results),
		LastAnalyzed:  a.clock.Now(),
	}
}

func roundMean(sum int, n float64) int {
	return int(math.Round(float64(sum) / n))
}
