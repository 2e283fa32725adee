package analyzer

import (
	"context"
	"time"
)

// Store persists website and page records. Each summary column is owned by
// exactly one pipeline stage, so updates are field-scoped rather than
// read-modify-write of the whole record.
type Store interface {
	// FindOrCreateWebsite looks up a website by URL, creating it (with a
	// unique slug) when absent. Goal and tags are opaque caller metadata set
	// only on creation. The boolean reports whether a row was created.
	FindOrCreateWebsite(ctx context.Context, url, goal string, tags []string) (Website, bool, error)
	GetWebsite(ctx context.Context, id int64) (Website, error)
	GetWebsiteBySlug(ctx context.Context, slug string) (Website, error)

	SetStatus(ctx context.Context, id int64, status Status) error
	// MergeWebsiteSEO merges the given fields into the website-level SEO map,
	// leaving keys owned by other writers untouched.
	MergeWebsiteSEO(ctx context.Context, id int64, fields map[string]any) error
	SetSitemapData(ctx context.Context, id int64, data SitemapData) error
	SetLighthouseSummary(ctx context.Context, id int64, summary LighthouseSummary) error
	SetCompany(ctx context.Context, id int64, company Company) error
	MarkProcessed(ctx context.Context, id int64) error

	// MarkStageDispatched records that a stage was scheduled for the website.
	MarkStageDispatched(ctx context.Context, id int64, stage Stage) error
	// CompleteStage records the terminal state of a dispatched stage and
	// returns the full bookkeeping map after the update.
	CompleteStage(ctx context.Context, id int64, stage Stage, state StageState) (map[Stage]StageState, error)

	// UpsertPage creates or refreshes the page row for (websiteID, url).
	UpsertPage(ctx context.Context, websiteID int64, url, category string) error
	UpdatePageSEO(ctx context.Context, websiteID int64, url string, report SEOReport) error
	UpdatePageLighthouse(ctx context.Context, websiteID int64, url string, result LighthouseResult, analyzedAt time.Time) error
	ListPages(ctx context.Context, websiteID int64) ([]Page, error)

	Close() error
}

// Scheduler dispatches a stage task after the given delay. Ordering across
// stages is advisory via delay, not enforced with dependency barriers.
type Scheduler interface {
	Schedule(ctx context.Context, task Task, delay time.Duration) error
}

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}

// Renderer produces fully rendered HTML for pages the plain fetcher cannot
// handle. Implementations may be absent; callers must treat rendering as
// best-effort.
type Renderer interface {
	Render(ctx context.Context, url string) (FetchResult, error)
}

// Publisher pushes completion events to an external topic.
type Publisher interface {
	Publish(ctx context.Context, event CompletionEvent) error
	Close() error
}

// BlobStore archives raw artifacts and returns a URI.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
