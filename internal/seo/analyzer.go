// Package seo implements the per-page content analyzer.
package seo

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// Title and meta-description length recommendations, in characters.
const (
	titleMinLen       = 30
	titleMaxLen       = 60
	descriptionMinLen = 120
	descriptionMaxLen = 160
)

// Performance-hint thresholds.
const (
	inlineStyleHintThreshold = 5
	rasterImageHintThreshold = 10
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Detector decides whether a probe result needs a headless render before
// extraction.
type Detector interface {
	ShouldRender(probe analyzer.FetchResult) bool
}

// Analyzer fetches pages and extracts content/SEO signals from their markup.
type Analyzer struct {
	fetcher  analyzer.Fetcher
	renderer analyzer.Renderer
	detector Detector
	clock    analyzer.Clock
	logger   *zap.Logger
}

// NewAnalyzer builds an Analyzer. Renderer and detector are optional; when
// absent the probe body is always used as-is.
func NewAnalyzer(fetcher analyzer.Fetcher, renderer analyzer.Renderer, detector Detector, clock analyzer.Clock, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		fetcher:  fetcher,
		renderer: renderer,
		detector: detector,
		clock:    clock,
		logger:   logger,
	}
}

// AnalyzePage fetches pageURL and extracts the full SEO report. Non-success
// HTTP statuses yield a skipped outcome; the page is left unanalyzed.
func (a *Analyzer) AnalyzePage(ctx context.Context, siteURL, pageURL string) analyzer.Outcome[analyzer.SEOReport] {
	res, err := a.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return analyzer.Failed[analyzer.SEOReport](fmt.Errorf("fetch page: %w", err))
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return analyzer.Skipped[analyzer.SEOReport](fmt.Sprintf("status %d", res.StatusCode))
	}

	body := a.maybeRender(ctx, pageURL, res)

	report, err := a.Extract(siteURL, body)
	if err != nil {
		return analyzer.Failed[analyzer.SEOReport](err)
	}
	report.AnalyzedAt = a.clock.Now()
	return analyzer.Ok(report)
}

// maybeRender escalates to the headless renderer when the probe HTML looks
// JS-rendered. Render failures fall back to the probe body.
func (a *Analyzer) maybeRender(ctx context.Context, pageURL string, probe analyzer.FetchResult) []byte {
	if a.renderer == nil || a.detector == nil || !a.detector.ShouldRender(probe) {
		return probe.Body
	}
	rendered, err := a.renderer.Render(ctx, pageURL)
	if err != nil {
		a.logger.Warn("Headless render failed, using probe body",
			zap.String("url", pageURL), zap.Error(err))
		return probe.Body
	}
	return rendered.Body
}

// Extract parses raw markup and computes every content/SEO signal. It is a
// pure function of the markup plus the owning site URL (for the
// internal/external link split).
func (a *Analyzer) Extract(siteURL string, html []byte) (analyzer.SEOReport, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return analyzer.SEOReport{}, fmt.Errorf("parse html: %w", err)
	}

	report := analyzer.SEOReport{
		Title:            extractTitle(doc),
		Description:      extractDescription(doc),
		Keywords:         strings.TrimSpace(doc.Find(`meta[name="keywords"]`).AttrOr("content", "")),
		Headings:         analyzeHeadings(doc),
		Images:           analyzeImages(doc),
		Links:            analyzeLinks(doc, siteURL),
		Social:           extractSocialMeta(doc),
		StructuredData:   checkStructuredData(doc),
		PerformanceHints: performanceHints(doc),
	}

	// Content metrics come last: stripping script/style mutates the document.
	doc.Find("script, style, noscript").Remove()
	text := strings.TrimSpace(whitespaceRe.ReplaceAllString(doc.Text(), " "))
	report.Content = analyzer.ContentStats{
		WordCount:      len(strings.Fields(text)),
		CharacterCount: len(text),
		Readability:    ReadabilityScore(text),
	}
	return report, nil
}

func extractTitle(doc *goquery.Document) *analyzer.TagInfo {
	sel := doc.Find("title")
	if sel.Length() == 0 {
		return nil
	}
	title := strings.TrimSpace(sel.First().Text())
	info := &analyzer.TagInfo{Content: title, Length: len([]rune(title))}
	if info.Length < titleMinLen {
		info.Issues = append(info.Issues, "Title too short (recommended: 30-60 characters)")
	} else if info.Length > titleMaxLen {
		info.Issues = append(info.Issues, "Title too long (recommended: 30-60 characters)")
	}
	return info
}

func extractDescription(doc *goquery.Document) *analyzer.TagInfo {
	content, ok := doc.Find(`meta[name="description"]`).Attr("content")
	if !ok {
		return nil
	}
	desc := strings.TrimSpace(content)
	info := &analyzer.TagInfo{Content: desc, Length: len([]rune(desc))}
	if info.Length < descriptionMinLen {
		info.Issues = append(info.Issues, "Description too short (recommended: 120-160 characters)")
	} else if info.Length > descriptionMaxLen {
		info.Issues = append(info.Issues, "Description too long (recommended: 120-160 characters)")
	}
	return info
}

func analyzeHeadings(doc *goquery.Document) analyzer.HeadingReport {
	structure := make(map[string]analyzer.HeadingLevel)
	for level := 1; level <= 6; level++ {
		tag := fmt.Sprintf("h%d", level)
		sel := doc.Find(tag)
		if sel.Length() == 0 {
			continue
		}
		var texts []string
		sel.Each(func(_ int, s *goquery.Selection) {
			texts = append(texts, strings.TrimSpace(s.Text()))
		})
		structure[tag] = analyzer.HeadingLevel{Count: len(texts), Content: texts}
	}

	var issues []string
	h1, ok := structure["h1"]
	switch {
	case !ok || h1.Count == 0:
		issues = append(issues, "Missing H1 tag")
	case h1.Count > 1:
		issues = append(issues, "Multiple H1 tags found (should be only one)")
	}
	return analyzer.HeadingReport{Structure: structure, Issues: issues}
}

func analyzeImages(doc *goquery.Document) analyzer.ImageStats {
	total := doc.Find("img").Length()
	withAlt := doc.Find("img[alt]").Length()

	stats := analyzer.ImageStats{
		Total:      total,
		WithAlt:    withAlt,
		WithoutAlt: total - withAlt,
	}
	if total > 0 {
		stats.AltPercentage = math.Round(float64(withAlt)/float64(total)*100*100) / 100
	}
	return stats
}

func analyzeLinks(doc *goquery.Document, siteURL string) analyzer.LinkStats {
	siteHost := hostOf(siteURL)

	var stats analyzer.LinkStats
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		stats.Total++
		href, _ := s.Attr("href")
		linkHost := hostOf(href)
		if linkHost == "" || linkHost == siteHost {
			stats.Internal++
		} else {
			stats.External++
		}
	})
	return stats
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func extractSocialMeta(doc *goquery.Document) analyzer.SocialMeta {
	meta := analyzer.SocialMeta{}
	doc.Find(`meta[property^="og:"]`).Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		content, _ := s.Attr("content")
		key := strings.TrimPrefix(prop, "og:")
		if key == "" {
			return
		}
		if meta.OpenGraph == nil {
			meta.OpenGraph = make(map[string]string)
		}
		meta.OpenGraph[key] = content
	})
	doc.Find(`meta[name^="twitter:"]`).Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		content, _ := s.Attr("content")
		key := strings.TrimPrefix(name, "twitter:")
		if key == "" {
			return
		}
		if meta.Twitter == nil {
			meta.Twitter = make(map[string]string)
		}
		meta.Twitter[key] = content
	})
	return meta
}

func checkStructuredData(doc *goquery.Document) analyzer.StructuredData {
	return analyzer.StructuredData{
		JSONLD:    doc.Find(`script[type="application/ld+json"]`).Length(),
		Microdata: doc.Find("[itemscope]").Length(),
	}
}

func performanceHints(doc *goquery.Document) []string {
	var hints []string

	inlineStyles := doc.Find("[style]").Length()
	if inlineStyles > inlineStyleHintThreshold {
		hints = append(hints, fmt.Sprintf("Consider moving inline styles to external CSS files (%d found)", inlineStyles))
	}

	rasterImages := 0
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		lower := strings.ToLower(src)
		if strings.Contains(lower, ".jpg") || strings.Contains(lower, ".png") {
			rasterImages++
		}
	})
	if rasterImages > rasterImageHintThreshold {
		hints = append(hints, "Consider optimizing images and using modern formats like WebP")
	}
	return hints
}

// BasicSignals extracts the lightweight homepage signals persisted by the
// orchestrator before any deep analysis runs.
func BasicSignals(html []byte) map[string]any {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return map[string]any{}
	}

	info := make(map[string]any)
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		info["title"] = title
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		info["description"] = strings.TrimSpace(desc)
	}
	if keywords, ok := doc.Find(`meta[name="keywords"]`).Attr("content"); ok {
		info["keywords"] = strings.TrimSpace(keywords)
	}

	headings := make(map[string]int)
	for level := 1; level <= 6; level++ {
		tag := fmt.Sprintf("h%d", level)
		if count := doc.Find(tag).Length(); count > 0 {
			headings[tag] = count
		}
	}
	info["headings"] = headings
	info["images_total"] = doc.Find("img").Length()
	info["images_with_alt"] = doc.Find("img[alt]").Length()
	return info
}
