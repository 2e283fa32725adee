package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, SanitizeSite(tc.input))
		})
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	require.NotNil(t, stageRunsTotal)
	require.NotNil(t, pagesAnalyzedTotal)
	require.NotNil(t, externalCallsTotal)
	require.NotNil(t, httpRequestsTotal)

	ObserveStageRun("sitemap", "succeeded", 2*time.Second)
	require.Equal(t, float64(1),
		testutil.ToFloat64(stageRunsTotal.WithLabelValues("sitemap", "succeeded")))

	ObservePageAnalyzed("https://example.com/page", "seo")
	require.Equal(t, float64(1),
		testutil.ToFloat64(pagesAnalyzedTotal.WithLabelValues("example.com", "seo")))

	ObserveExternalCall("pagespeed_insights", "ok")
	require.Equal(t, float64(1),
		testutil.ToFloat64(externalCallsTotal.WithLabelValues("pagespeed_insights", "ok")))
}
