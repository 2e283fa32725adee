package sitemap

import (
	"net/url"
	"regexp"
	"strings"
)

// categoryRule maps a path pattern to a semantic page category.
type categoryRule struct {
	pattern  *regexp.Regexp
	category string
}

// Ordered rule table; the first match wins. The extension and /api/ rules
// come after the named-section rules on purpose: "/docs/api" is
// documentation, not an API endpoint.
var categoryRules = []categoryRule{
	{regexp.MustCompile(`/(docs|documentation|guide|api)`), "documentation"},
	{regexp.MustCompile(`/(products?|items?|shop)`), "product"},
	{regexp.MustCompile(`/(collections?|categories?|catalog)`), "collection"},
	{regexp.MustCompile(`/(blogs?|news|articles?|posts?)`), "blog"},
	{regexp.MustCompile(`/(about|contact|privacy|terms|faq|help|support)`), "page"},
	{regexp.MustCompile(`/(tags?|tagged)`), "tag"},
	{regexp.MustCompile(`/(search|results)`), "search"},
}

var (
	fileExtRe = regexp.MustCompile(`\.(pdf|doc|docx|jpg|jpeg|png|gif|svg)$`)
	apiPathRe = regexp.MustCompile(`/api/`)
)

// Classify maps a URL to a semantic page category. Evaluation is
// case-insensitive and ignores trailing slashes; unmatched paths default to
// "page".
func Classify(rawURL string) string {
	path := ""
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	path = strings.ToLower(strings.TrimRight(path, "/"))

	for _, rule := range categoryRules {
		if rule.pattern.MatchString(path) {
			return rule.category
		}
	}
	if path == "" {
		return "homepage"
	}
	if fileExtRe.MatchString(path) {
		return "file"
	}
	if apiPathRe.MatchString(path) {
		return "api"
	}
	return "page"
}

// Categorize counts the URLs falling into each category.
func Categorize(urls []string) map[string]int {
	categories := make(map[string]int)
	for _, u := range urls {
		categories[Classify(u)]++
	}
	return categories
}
