package lighthouse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type stubSource struct {
	name    string
	outcome analyzer.Outcome[analyzer.LighthouseResult]
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Analyze(context.Context, string) analyzer.Outcome[analyzer.LighthouseResult] {
	return s.outcome
}

const pagespeedPayload = `{
  "lighthouseResult": {
    "categories": {
      "performance": {"score": 0.92},
      "accessibility": {"score": 0.88},
      "best-practices": {"score": 0.75},
      "seo": {"score": 1.0}
    },
    "audits": {
      "first-contentful-paint": {"numericValue": 1234.5},
      "largest-contentful-paint": {"numericValue": 2500},
      "cumulative-layout-shift": {"numericValue": 0.1234},
      "speed-index": {"numericValue": 3100},
      "total-blocking-time": {"numericValue": 150}
    }
  }
}`

func TestPageSpeedAnalyze(t *testing.T) {
	t.Parallel()

	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(pagespeedPayload))
	}))
	defer srv.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ps := NewPageSpeed(PageSpeedConfig{
		APIKey:   "test-key",
		Endpoint: srv.URL,
	}, fixedClock{t: now}, zap.NewNop())

	outcome := ps.Analyze(context.Background(), "https://example.com")
	require.True(t, outcome.IsOk())

	result := outcome.Value()
	require.Equal(t, 92, result.Performance)
	require.Equal(t, 88, result.Accessibility)
	require.Equal(t, 75, result.BestPractices)
	require.Equal(t, 100, result.SEO)
	require.Equal(t, "pagespeed_insights", result.Source)
	require.Equal(t, now, result.AnalyzedAt)

	require.InDelta(t, 1.23, result.Metrics["first_contentful_paint"], 1e-9)
	require.InDelta(t, 2.5, result.Metrics["largest_contentful_paint"], 1e-9)
	require.InDelta(t, 0.123, result.Metrics["cumulative_layout_shift"], 1e-9)
	require.InDelta(t, 3.1, result.Metrics["speed_index"], 1e-9)
	require.InDelta(t, 0.15, result.Metrics["total_blocking_time"], 1e-9)

	require.Equal(t, []string{"https://example.com"}, gotQuery["url"])
	require.Equal(t, []string{"test-key"}, gotQuery["key"])
	require.Equal(t, []string{"mobile"}, gotQuery["strategy"])
	require.ElementsMatch(t,
		[]string{"performance", "accessibility", "best-practices", "seo"},
		gotQuery["category"])
}

func TestPageSpeedSkipsWithoutKey(t *testing.T) {
	t.Parallel()

	ps := NewPageSpeed(PageSpeedConfig{}, fixedClock{t: time.Now()}, zap.NewNop())
	outcome := ps.Analyze(context.Background(), "https://example.com")
	require.True(t, outcome.IsSkipped())
	require.Contains(t, outcome.Reason(), "not configured")
}

func TestPageSpeedFailsOnServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ps := NewPageSpeed(PageSpeedConfig{APIKey: "k", Endpoint: srv.URL}, fixedClock{t: time.Now()}, zap.NewNop())
	outcome := ps.Analyze(context.Background(), "https://example.com")
	require.True(t, outcome.IsFailed())
	require.ErrorContains(t, outcome.Err(), "429")
}

func TestAnalyzePageFallsThroughSkippedSources(t *testing.T) {
	t.Parallel()

	want := analyzer.LighthouseResult{Performance: 70, Source: "lighthouse_cli"}
	a := New([]Source{
		stubSource{name: "pagespeed_insights", outcome: analyzer.Skipped[analyzer.LighthouseResult]("no key")},
		stubSource{name: "lighthouse_cli", outcome: analyzer.Ok(want)},
	}, time.Millisecond, fixedClock{t: time.Now()}, zap.NewNop())

	outcome := a.AnalyzePage(context.Background(), "https://example.com")
	require.True(t, outcome.IsOk())
	require.Equal(t, want, outcome.Value())
}

func TestAnalyzePageSurfacesLastFailure(t *testing.T) {
	t.Parallel()

	failure := errors.New("boom")
	a := New([]Source{
		stubSource{name: "pagespeed_insights", outcome: analyzer.Failed[analyzer.LighthouseResult](failure)},
		stubSource{name: "lighthouse_cli", outcome: analyzer.Skipped[analyzer.LighthouseResult]("not installed")},
	}, time.Millisecond, fixedClock{t: time.Now()}, zap.NewNop())

	outcome := a.AnalyzePage(context.Background(), "https://example.com")
	require.True(t, outcome.IsFailed())
	require.ErrorIs(t, outcome.Err(), failure)
}

func TestAnalyzePageSkippedWhenNoSources(t *testing.T) {
	t.Parallel()

	a := New(nil, time.Millisecond, fixedClock{t: time.Now()}, zap.NewNop())
	outcome := a.AnalyzePage(context.Background(), "https://example.com")
	require.True(t, outcome.IsSkipped())
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := New(nil, time.Millisecond, fixedClock{t: now}, zap.NewNop())

	summary := a.Aggregate([]analyzer.LighthouseResult{
		{Performance: 80, Accessibility: 95, BestPractices: 85, SEO: 90},
		{Performance: 60, Accessibility: 90, BestPractices: 80, SEO: 70},
	})
	require.NotNil(t, summary)
	require.Equal(t, 70, summary.Performance)
	require.Equal(t, 93, summary.Accessibility)
	require.Equal(t, 83, summary.BestPractices)
	require.Equal(t, 80, summary.SEO)
	require.Equal(t, 2, summary.PagesAnalyzed)
	require.Equal(t, now, summary.LastAnalyzed)
}

func TestAggregateEmpty(t *testing.T) {
	t.Parallel()

	a := New(nil, time.Millisecond, fixedClock{t: time.Now()}, zap.NewNop())
	require.Nil(t, a.Aggregate(nil))
}
