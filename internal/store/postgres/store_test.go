package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewWithPool(mock, fixedClock{t: testNow})
	require.NoError(t, err)
	return store, mock
}

func websiteRow(id int64, url, slug string) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "url", "slug", "analysis_status", "is_processed", "goal",
		"tags", "seo", "lighthouse", "company", "sitemap_data", "stages",
		"created_at", "updated_at",
	}).AddRow(
		id, url, slug, analyzer.StatusPending, false, (*string)(nil),
		[]byte(nil), []byte(`{"title":"Example"}`), []byte(nil), []byte(nil), []byte(nil), []byte(`{"sitemap":"dispatched"}`),
		testNow, testNow,
	)
}

func TestFindOrCreateWebsiteExisting(t *testing.T) {
	t.Parallel()
	store, mock := newStore(t)

	mock.ExpectQuery("SELECT .+ FROM websites WHERE url").
		WithArgs("https://example.com").
		WillReturnRows(websiteRow(7, "https://example.com", "example-com"))

	w, created, err := store.FindOrCreateWebsite(context.Background(), "https://example.com", "", nil)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, int64(7), w.ID)
	require.Equal(t, "example-com", w.Slug)
	require.Equal(t, "Example", w.SEO["title"])
	require.Equal(t, analyzer.StageDispatched, w.Stages[analyzer.StageSitemap])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrCreateWebsiteInserts(t *testing.T) {
	t.Parallel()
	store, mock := newStore(t)

	mock.ExpectQuery("SELECT .+ FROM websites WHERE url").
		WithArgs("https://example.com").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("INSERT INTO websites").
		WithArgs("https://example.com", "example-com", analyzer.StatusPending,
			"seo audit", []byte(`["shop","dk"]`), testNow).
		WillReturnRows(websiteRow(8, "https://example.com", "example-com"))

	w, created, err := store.FindOrCreateWebsite(context.Background(), "https://example.com",
		"seo audit", []string{"shop", "dk"})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, int64(8), w.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrCreateWebsiteSelectError(t *testing.T) {
	t.Parallel()
	store, mock := newStore(t)

	mock.ExpectQuery("SELECT .+ FROM websites WHERE url").
		WithArgs("https://example.com").
		WillReturnError(context.Canceled)

	_, _, err := store.FindOrCreateWebsite(context.Background(), "https://example.com", "", nil)
	require.Error(t, err)
}

func TestSetStatus(t *testing.T) {
	t.Parallel()
	store, mock := newStore(t)

	mock.ExpectExec("UPDATE websites SET analysis_status").
		WithArgs(int64(1), analyzer.StatusQueued, testNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.SetStatus(context.Background(), 1, analyzer.StatusQueued))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusNotFound(t *testing.T) {
	t.Parallel()
	store, mock := newStore(t)

	mock.ExpectExec("UPDATE websites SET analysis_status").
		WithArgs(int64(99), analyzer.StatusQueued, testNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.SetStatus(context.Background(), 99, analyzer.StatusQueued)
	require.ErrorIs(t, err, analyzer.ErrNotFound)
}

func TestMergeWebsiteSEO(t *testing.T) {
	t.Parallel()
	store, mock := newStore(t)

	mock.ExpectExec(`UPDATE websites SET seo = COALESCE`).
		WithArgs(int64(1), []byte(`{"analyzed_pages":5,"title":"Example"}`), testNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.MergeWebsiteSEO(context.Background(), 1, map[string]any{
		"title":          "Example",
		"analyzed_pages": 5,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetLighthouseSummary(t *testing.T) {
	t.Parallel()
	store, mock := newStore(t)

	summary := analyzer.LighthouseSummary{Performance: 70, SEO: 80, PagesAnalyzed: 2, LastAnalyzed: testNow}
	payload := `{"performance":70,"accessibility":0,"best-practices":0,"seo":80,"pages_analyzed":2,"last_analyzed":"2026-03-01T12:00:00Z"}`

	mock.ExpectExec(`UPDATE websites SET lighthouse`).
		WithArgs(int64(1), []byte(payload), testNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.SetLighthouseSummary(context.Background(), 1, summary))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteStage(t *testing.T) {
	t.Parallel()
	store, mock := newStore(t)

	mock.ExpectQuery(`UPDATE websites SET stages`).
		WithArgs(int64(1), "seo", "succeeded", testNow).
		WillReturnRows(pgxmock.NewRows([]string{"stages"}).
			AddRow([]byte(`{"sitemap":"succeeded","seo":"succeeded","company":"dispatched"}`)))

	stages, err := store.CompleteStage(context.Background(), 1, analyzer.StageSEO, analyzer.StageSucceeded)
	require.NoError(t, err)
	require.Equal(t, analyzer.StageSucceeded, stages[analyzer.StageSEO])
	require.Equal(t, analyzer.StageDispatched, stages[analyzer.StageCompany])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPage(t *testing.T) {
	t.Parallel()
	store, mock := newStore(t)

	mock.ExpectExec("INSERT INTO pages").
		WithArgs(int64(1), "https://example.com/blog/post", "blog", testNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.UpsertPage(context.Background(), 1, "https://example.com/blog/post", "blog"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePageSEONotFound(t *testing.T) {
	t.Parallel()
	store, mock := newStore(t)

	mock.ExpectExec("UPDATE pages SET seo").
		WithArgs(int64(1), "https://example.com/missing", pgxmock.AnyArg(), "", testNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.UpdatePageSEO(context.Background(), 1, "https://example.com/missing", analyzer.SEOReport{})
	require.ErrorIs(t, err, analyzer.ErrNotFound)
}

func TestListPages(t *testing.T) {
	t.Parallel()
	store, mock := newStore(t)

	analyzedAt := testNow.Add(time.Hour)
	mock.ExpectQuery("SELECT .+ FROM pages WHERE website_id").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "website_id", "url", "title", "category",
			"lighthouse", "seo", "meta_data", "is_analyzed", "analyzed_at",
			"created_at", "updated_at",
		}).AddRow(
			int64(10), int64(1), "https://example.com/docs", strPtr("Docs"), strPtr("documentation"),
			[]byte(`{"performance":90,"accessibility":0,"best-practices":0,"seo":0,"source":"pagespeed_insights","analyzed_at":"2026-03-01T13:00:00Z"}`),
			[]byte(nil), []byte(nil), true, &analyzedAt,
			testNow, testNow,
		))

	pages, err := store.ListPages(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, "documentation", pages[0].Category)
	require.Equal(t, "Docs", pages[0].Title)
	require.True(t, pages[0].IsAnalyzed)
	require.Equal(t, 90, pages[0].Lighthouse.Performance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(s string) *string { return &s }
