package fetch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

func TestDetectorPromotesThinDocuments(t *testing.T) {
	t.Parallel()

	d := NewDetector(2000, nil)
	require.True(t, d.ShouldRender(analyzer.FetchResult{StatusCode: 200, Body: []byte("<html></html>")}))
}

func TestDetectorPromotesKnownMarkers(t *testing.T) {
	t.Parallel()

	d := NewDetector(10, []string{"__NEXT_DATA__", "data-reactroot"})
	body := []byte("<html><body>" + strings.Repeat("x", 100) + `<div data-reactroot></div></body></html>`)
	require.True(t, d.ShouldRender(analyzer.FetchResult{StatusCode: 200, Body: body}))
}

func TestDetectorIgnoresNonOKResponses(t *testing.T) {
	t.Parallel()

	d := NewDetector(2000, nil)
	require.False(t, d.ShouldRender(analyzer.FetchResult{StatusCode: 404, Body: nil}))
}

func TestDetectorLeavesFullDocumentsAlone(t *testing.T) {
	t.Parallel()

	d := NewDetector(100, []string{"__NEXT_DATA__"})
	body := []byte("<html><body>" + strings.Repeat("content ", 50) + "</body></html>")
	require.False(t, d.ShouldRender(analyzer.FetchResult{StatusCode: 200, Body: body}))
}
