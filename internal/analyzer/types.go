// Package analyzer defines core types shared across subsystems.
package analyzer

import (
	"time"
)

// Status represents the persisted lifecycle state of a website analysis.
type Status string

// Analysis status values persisted on the website record.
const (
	StatusPending             Status = "pending"
	StatusQueued              Status = "queued"
	StatusAnalyzingWebsite    Status = "analyzing_website"
	StatusDispatchingJobs     Status = "dispatching_jobs"
	StatusAnalyzingSitemap    Status = "analyzing_sitemap"
	StatusSitemapAnalyzed     Status = "sitemap_analyzed"
	StatusSitemapFailed       Status = "sitemap_failed"
	StatusAnalyzingLighthouse Status = "analyzing_lighthouse"
	StatusLighthouseAnalyzed  Status = "lighthouse_analyzed"
	StatusLighthouseFailed    Status = "lighthouse_failed"
	StatusAnalyzingSEO        Status = "analyzing_seo"
	StatusSEOAnalyzed         Status = "seo_analyzed"
	StatusSEOFailed           Status = "seo_failed"
	StatusAnalyzingCompany    Status = "analyzing_company"
	StatusCompanyAnalyzed     Status = "company_analyzed"
	StatusCompleted           Status = "completed"
	StatusFailed              Status = "failed"
)

// Stage identifies one schedulable unit of pipeline work.
type Stage string

// Pipeline stages dispatched through the scheduler. The homepage SEO pass
// and the sampled-page SEO batch run the same analysis but are tracked under
// separate keys so each counts toward completion on its own.
const (
	StageWebsite    Stage = "website"
	StageSitemap    Stage = "sitemap"
	StageSEO        Stage = "seo"
	StageSEOBatch   Stage = "seo_batch"
	StageLighthouse Stage = "lighthouse"
	StageCompany    Stage = "company"
)

// StageState tracks the terminal bookkeeping for a dispatched stage.
type StageState string

// Stage bookkeeping states used for completion tracking.
const (
	StageDispatched StageState = "dispatched"
	StageSucceeded  StageState = "succeeded"
	StageFailed     StageState = "failed"
)

// Website is the root analysis subject.
type Website struct {
	ID          int64                `json:"id"`
	URL         string               `json:"url"`
	Slug        string               `json:"slug"`
	Status      Status               `json:"analysis_status"`
	IsProcessed bool                 `json:"is_processed"`
	Goal        string               `json:"goal,omitempty"`
	Tags        []string             `json:"tags,omitempty"`
	SEO         map[string]any       `json:"seo,omitempty"`
	Lighthouse  *LighthouseSummary   `json:"lighthouse,omitempty"`
	Company     *Company             `json:"company,omitempty"`
	SitemapData *SitemapData         `json:"sitemap_data,omitempty"`
	Stages      map[Stage]StageState `json:"stages,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Page is one sampled URL under a website. Rows exist only for URLs chosen by
// the sampler, not for every discovered URL.
type Page struct {
	ID          int64             `json:"id"`
	WebsiteID   int64             `json:"website_id"`
	URL         string            `json:"url"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Lighthouse  *LighthouseResult `json:"lighthouse,omitempty"`
	SEO         *SEOReport        `json:"seo,omitempty"`
	MetaData    map[string]any    `json:"meta_data,omitempty"`
	IsAnalyzed  bool              `json:"is_analyzed"`
	AnalyzedAt  *time.Time        `json:"analyzed_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// SitemapData summarizes the discovered URL inventory of a website.
type SitemapData struct {
	TotalPages   int            `json:"total_pages"`
	Categories   map[string]int `json:"categories"`
	LastAnalyzed time.Time      `json:"last_analyzed"`
}

// LighthouseResult is the normalized per-page output of the performance analyzer.
type LighthouseResult struct {
	Performance   int                `json:"performance"`
	Accessibility int                `json:"accessibility"`
	BestPractices int                `json:"best-practices"`
	SEO           int                `json:"seo"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	Source        string             `json:"source"`
	AnalyzedAt    time.Time          `json:"analyzed_at"`
}

// LighthouseSummary is the website-level aggregate of per-page scores.
type LighthouseSummary struct {
	Performance   int       `json:"performance"`
	Accessibility int       `json:"accessibility"`
	BestPractices int       `json:"best-practices"`
	SEO           int       `json:"seo"`
	PagesAnalyzed int       `json:"pages_analyzed"`
	LastAnalyzed  time.Time `json:"last_analyzed"`
}

// TagInfo holds an extracted text element plus length-based issue flags.
type TagInfo struct {
	Content string   `json:"content"`
	Length  int      `json:"length"`
	Issues  []string `json:"issues,omitempty"`
}

// HeadingLevel describes the occurrences of one heading level (h1..h6).
type HeadingLevel struct {
	Count   int      `json:"count"`
	Content []string `json:"content"`
}

// HeadingReport holds the heading structure and structural issues.
type HeadingReport struct {
	Structure map[string]HeadingLevel `json:"structure"`
	Issues    []string                `json:"issues,omitempty"`
}

// ImageStats summarizes alt-attribute coverage of a page's images.
type ImageStats struct {
	Total         int     `json:"total"`
	WithAlt       int     `json:"with_alt"`
	WithoutAlt    int     `json:"without_alt"`
	AltPercentage float64 `json:"alt_percentage"`
}

// LinkStats splits page links into internal and external.
type LinkStats struct {
	Total    int `json:"total"`
	Internal int `json:"internal"`
	External int `json:"external"`
}

// ContentStats summarizes the visible text of a page.
type ContentStats struct {
	WordCount      int     `json:"word_count"`
	CharacterCount int     `json:"character_count"`
	Readability    float64 `json:"readability"`
}

// SocialMeta carries Open Graph and Twitter Card properties.
type SocialMeta struct {
	OpenGraph map[string]string `json:"og,omitempty"`
	Twitter   map[string]string `json:"twitter,omitempty"`
}

// StructuredData reports machine-readable markup found on a page.
type StructuredData struct {
	JSONLD    int `json:"json_ld,omitempty"`
	Microdata int `json:"microdata,omitempty"`
}

// SEOReport is the full per-page output of the content analyzer.
type SEOReport struct {
	Title            *TagInfo       `json:"title,omitempty"`
	Description      *TagInfo       `json:"description,omitempty"`
	Keywords         string         `json:"keywords,omitempty"`
	Headings         HeadingReport  `json:"headings"`
	Images           ImageStats     `json:"images"`
	Links            LinkStats      `json:"links"`
	Content          ContentStats   `json:"content_analysis"`
	Social           SocialMeta     `json:"social_meta"`
	StructuredData   StructuredData `json:"structured_data"`
	PerformanceHints []string       `json:"performance_hints,omitempty"`
	AnalyzedAt       time.Time      `json:"analyzed_at"`
}

// SearchResult is one entry returned by the site-search lookup.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Company is the normalized business-registry record for a website.
type Company struct {
	CVR           string    `json:"cvr"`
	Name          string    `json:"name,omitempty"`
	Industry      string    `json:"industry,omitempty"`
	IndustryCode  string    `json:"industry_code,omitempty"`
	Status        string    `json:"status,omitempty"`
	EmployeeCount int       `json:"employee_count"`
	Size          string    `json:"size"`
	Location      string    `json:"location"`
	FoundedYear   string    `json:"founded_year,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Website       string    `json:"website,omitempty"`
	LookupDate    time.Time `json:"lookup_date"`
}

// Task wraps one schedulable stage run for a website.
type Task struct {
	WebsiteID int64    `json:"website_id"`
	Stage     Stage    `json:"stage"`
	URLs      []string `json:"urls,omitempty"`
	CVR       string   `json:"cvr,omitempty"`
	Attempt   int      `json:"attempt"`
}

// CompletionEvent is published when a website reaches a terminal state.
type CompletionEvent struct {
	WebsiteID int64     `json:"website_id"`
	Slug      string    `json:"slug"`
	Status    Status    `json:"status"`
	At        time.Time `json:"at"`
}

// FetchResult is the outcome of fetching a single URL.
type FetchResult struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
	Rendered   bool
}
