package sitemap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDiscovererForTest() *Discoverer {
	return NewDiscoverer(Config{Timeout: 2 * time.Second, ProbeTimeout: time.Second}, zap.NewNop())
}

func TestDiscoverDeduplicatesAcrossLeafSitemaps(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/sitemap_index.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%s/sitemap-a.xml</loc></sitemap>
  <sitemap><loc>%s/sitemap-b.xml</loc></sitemap>
</sitemapindex>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/sitemap-a.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<urlset>
  <url><loc>https://example.com/a-1</loc></url>
  <url><loc>https://example.com/a-2</loc></url>
  <url><loc>https://example.com/shared</loc></url>
</urlset>`)
	})
	mux.HandleFunc("/sitemap-b.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<urlset>
  <url><loc>https://example.com/b-1</loc></url>
  <url><loc>https://example.com/b-2</loc></url>
  <url><loc>https://example.com/shared</loc></url>
</urlset>`)
	})

	srv = httptest.NewServer(mux)
	defer srv.Close()

	d := newDiscovererForTest()
	urls := d.Discover(context.Background(), []string{srv.URL + "/sitemap_index.xml"})
	require.Len(t, urls, 5)
	require.ElementsMatch(t, []string{
		"https://example.com/a-1",
		"https://example.com/a-2",
		"https://example.com/shared",
		"https://example.com/b-1",
		"https://example.com/b-2",
	}, urls)
}

func TestDiscoverSkipsBrokenSitemaps(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/good.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<urlset><url><loc>https://example.com/ok</loc></url></urlset>`)
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `this is not xml <<<<`)
	})
	mux.HandleFunc("/missing.xml", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := newDiscovererForTest()
	urls := d.Discover(context.Background(), []string{
		srv.URL + "/broken.xml",
		srv.URL + "/missing.xml",
		srv.URL + "/good.xml",
	})
	require.Equal(t, []string{"https://example.com/ok"}, urls)
}

func TestDiscoverTotalFailureYieldsEmptySet(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := newDiscovererForTest()
	require.Empty(t, d.Discover(context.Background(), []string{srv.URL + "/sitemap.xml"}))
}

func TestDiscoverIgnoresSitemapCycles(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/loop.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<sitemapindex>
  <sitemap><loc>%s/loop.xml</loc></sitemap>
</sitemapindex>`, srv.URL)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	d := newDiscovererForTest()
	require.Empty(t, d.Discover(context.Background(), []string{srv.URL + "/loop.xml"}))
}

func TestFindSitemapURLsFromRobots(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "User-agent: *\nDisallow: /admin\nSitemap: %s/sitemap.xml\nsitemap: %s/extra.xml\n", srv.URL, srv.URL)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	d := newDiscovererForTest()
	urls := d.FindSitemapURLs(context.Background(), srv.URL)
	require.Equal(t, []string{srv.URL + "/sitemap.xml", srv.URL + "/extra.xml"}, urls)
}

func TestFindSitemapURLsFallsBackToConventionalPaths(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap_index.xml", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	// robots.txt and /sitemap.xml both 404.
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := newDiscovererForTest()
	urls := d.FindSitemapURLs(context.Background(), srv.URL+"/")
	require.Equal(t, []string{srv.URL + "/sitemap_index.xml"}, urls)
}

func TestFindSitemapURLsNothingFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d := newDiscovererForTest()
	require.Empty(t, d.FindSitemapURLs(context.Background(), srv.URL))
}
