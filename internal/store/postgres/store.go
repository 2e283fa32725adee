// Package postgres provides the Postgres-backed persistence implementation.
//
// It assumes the following schema:
//
//	CREATE TABLE websites (
//	    id BIGSERIAL PRIMARY KEY,
//	    url TEXT NOT NULL UNIQUE,
//	    slug TEXT NOT NULL UNIQUE,
//	    analysis_status TEXT NOT NULL,
//	    is_processed BOOLEAN NOT NULL DEFAULT FALSE,
//	    goal TEXT,
//	    tags JSONB,
//	    seo JSONB,
//	    lighthouse JSONB,
//	    company JSONB,
//	    sitemap_data JSONB,
//	    stages JSONB NOT NULL DEFAULT '{}'::jsonb,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE pages (
//	    id BIGSERIAL PRIMARY KEY,
//	    website_id BIGINT NOT NULL REFERENCES websites(id) ON DELETE CASCADE,
//	    url TEXT NOT NULL,
//	    title TEXT,
//	    category TEXT,
//	    lighthouse JSONB,
//	    seo JSONB,
//	    meta_data JSONB,
//	    is_analyzed BOOLEAN NOT NULL DEFAULT FALSE,
//	    analyzed_at TIMESTAMPTZ,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL,
//	    UNIQUE (website_id, url)
//	);
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store persists websites and pages in Postgres. Every summary write touches
// only the column its stage owns, so concurrent stages never clobber each
// other's data.
type Store struct {
	pool  pool
	clock analyzer.Clock
}

// New creates a pool-backed store from the given config.
func New(ctx context.Context, cfg Config, clock analyzer.Clock) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: p, clock: clock}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool, clock analyzer.Clock) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: p, clock: clock}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

const websiteColumns = `id, url, slug, analysis_status, is_processed, goal, tags, seo, lighthouse, company, sitemap_data, stages, created_at, updated_at`

func (s *Store) FindOrCreateWebsite(ctx context.Context, url, goal string, tags []string) (analyzer.Website, bool, error) {
	existing, err := s.findWebsite(ctx, "url", url)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, analyzer.ErrNotFound) {
		return analyzer.Website{}, false, err
	}

	var tagsJSON []byte
	if len(tags) > 0 {
		tagsJSON, err = json.Marshal(tags)
		if err != nil {
			return analyzer.Website{}, false, fmt.Errorf("marshal tags: %w", err)
		}
	}

	base := analyzer.DeriveSlug(url)
	now := s.clock.Now()
	for attempt := 0; attempt < 50; attempt++ {
		slug := base
		if attempt > 0 {
			slug = base + "-" + strconv.Itoa(attempt)
		}
		var w analyzer.Website
		row := s.pool.QueryRow(ctx, `
INSERT INTO websites (url, slug, analysis_status, is_processed, goal, tags, stages, created_at, updated_at)
VALUES ($1, $2, $3, FALSE, $4, $5, '{}'::jsonb, $6, $6)
RETURNING `+websiteColumns, url, slug, analyzer.StatusPending, goal, tagsJSON, now)
		err := scanWebsite(row, &w)
		if err == nil {
			return w, true, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// A concurrent insert won the URL, or the slug is taken.
			if pgErr.ConstraintName == "websites_url_key" {
				w, lookupErr := s.findWebsite(ctx, "url", url)
				return w, false, lookupErr
			}
			continue
		}
		return analyzer.Website{}, false, fmt.Errorf("insert website: %w", err)
	}
	return analyzer.Website{}, false, fmt.Errorf("could not allocate unique slug for %q", url)
}

func (s *Store) GetWebsite(ctx context.Context, id int64) (analyzer.Website, error) {
	return s.findWebsite(ctx, "id", id)
}

func (s *Store) GetWebsiteBySlug(ctx context.Context, slug string) (analyzer.Website, error) {
	return s.findWebsite(ctx, "slug", slug)
}

func (s *Store) findWebsite(ctx context.Context, column string, value any) (analyzer.Website, error) {
	var w analyzer.Website
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM websites WHERE %s = $1`, websiteColumns, column), value)
	if err := scanWebsite(row, &w); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return analyzer.Website{}, fmt.Errorf("website %v: %w", value, analyzer.ErrNotFound)
		}
		return analyzer.Website{}, fmt.Errorf("select website: %w", err)
	}
	return w, nil
}

func scanWebsite(row pgx.Row, w *analyzer.Website) error {
	var tags, seo, lighthouse, company, sitemapData, stages []byte
	var goal *string
	if err := row.Scan(&w.ID, &w.URL, &w.Slug, &w.Status, &w.IsProcessed, &goal,
		&tags, &seo, &lighthouse, &company, &sitemapData, &stages,
		&w.CreatedAt, &w.UpdatedAt); err != nil {
		return err
	}
	if goal != nil {
		w.Goal = *goal
	}
	for _, field := range []struct {
		raw []byte
		dst any
	}{
		{tags, &w.Tags},
		{seo, &w.SEO},
		{lighthouse, &w.Lighthouse},
		{company, &w.Company},
		{sitemapData, &w.SitemapData},
		{stages, &w.Stages},
	} {
		if len(field.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(field.raw, field.dst); err != nil {
			return fmt.Errorf("decode website column: %w", err)
		}
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, id int64, status analyzer.Status) error {
	return s.updateWebsite(ctx, id,
		`UPDATE websites SET analysis_status = $2, updated_at = $3 WHERE id = $1`,
		id, status, s.clock.Now())
}

func (s *Store) MergeWebsiteSEO(ctx context.Context, id int64, fields map[string]any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal seo fields: %w", err)
	}
	return s.updateWebsite(ctx, id,
		`UPDATE websites SET seo = COALESCE(seo, '{}'::jsonb) || $2::jsonb, updated_at = $3 WHERE id = $1`,
		id, payload, s.clock.Now())
}

func (s *Store) SetSitemapData(ctx context.Context, id int64, data analyzer.SitemapData) error {
	return s.setJSONColumn(ctx, id, "sitemap_data", data)
}

func (s *Store) SetLighthouseSummary(ctx context.Context, id int64, summary analyzer.LighthouseSummary) error {
	return s.setJSONColumn(ctx, id, "lighthouse", summary)
}

func (s *Store) SetCompany(ctx context.Context, id int64, company analyzer.Company) error {
	return s.setJSONColumn(ctx, id, "company", company)
}

func (s *Store) setJSONColumn(ctx context.Context, id int64, column string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", column, err)
	}
	return s.updateWebsite(ctx, id, fmt.Sprintf(
		`UPDATE websites SET %s = $2::jsonb, updated_at = $3 WHERE id = $1`, column),
		id, payload, s.clock.Now())
}

func (s *Store) MarkProcessed(ctx context.Context, id int64) error {
	return s.updateWebsite(ctx, id,
		`UPDATE websites SET is_processed = TRUE, updated_at = $2 WHERE id = $1`,
		id, s.clock.Now())
}

func (s *Store) MarkStageDispatched(ctx context.Context, id int64, stage analyzer.Stage) error {
	return s.updateWebsite(ctx, id,
		`UPDATE websites SET stages = COALESCE(stages, '{}'::jsonb) || jsonb_build_object($2::text, $3::text), updated_at = $4 WHERE id = $1`,
		id, string(stage), string(analyzer.StageDispatched), s.clock.Now())
}

func (s *Store) CompleteStage(ctx context.Context, id int64, stage analyzer.Stage, state analyzer.StageState) (map[analyzer.Stage]analyzer.StageState, error) {
	var raw []byte
	row := s.pool.QueryRow(ctx,
		`UPDATE websites SET stages = COALESCE(stages, '{}'::jsonb) || jsonb_build_object($2::text, $3::text), updated_at = $4 WHERE id = $1 RETURNING stages`,
		id, string(stage), string(state), s.clock.Now())
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("website %d: %w", id, analyzer.ErrNotFound)
		}
		return nil, fmt.Errorf("complete stage: %w", err)
	}
	stages := make(map[analyzer.Stage]analyzer.StageState)
	if err := json.Unmarshal(raw, &stages); err != nil {
		return nil, fmt.Errorf("decode stages: %w", err)
	}
	return stages, nil
}

func (s *Store) UpsertPage(ctx context.Context, websiteID int64, url, category string) error {
	now := s.clock.Now()
	_, err := s.pool.Exec(ctx, `
INSERT INTO pages (website_id, url, category, is_analyzed, created_at, updated_at)
VALUES ($1, $2, $3, FALSE, $4, $4)
ON CONFLICT (website_id, url) DO UPDATE SET category = EXCLUDED.category, updated_at = EXCLUDED.updated_at`,
		websiteID, url, category, now)
	if err != nil {
		return fmt.Errorf("upsert page: %w", err)
	}
	return nil
}

func (s *Store) UpdatePageSEO(ctx context.Context, websiteID int64, url string, report analyzer.SEOReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal seo report: %w", err)
	}
	title := ""
	if report.Title != nil {
		title = report.Title.Content
	}
	return s.updatePage(ctx, websiteID, url,
		`UPDATE pages SET seo = $3::jsonb, title = $4, updated_at = $5 WHERE website_id = $1 AND url = $2`,
		websiteID, url, payload, title, s.clock.Now())
}

func (s *Store) UpdatePageLighthouse(ctx context.Context, websiteID int64, url string, result analyzer.LighthouseResult, analyzedAt time.Time) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal lighthouse result: %w", err)
	}
	return s.updatePage(ctx, websiteID, url,
		`UPDATE pages SET lighthouse = $3::jsonb, is_analyzed = TRUE, analyzed_at = $4, updated_at = $5 WHERE website_id = $1 AND url = $2`,
		websiteID, url, payload, analyzedAt, s.clock.Now())
}

func (s *Store) ListPages(ctx context.Context, websiteID int64) ([]analyzer.Page, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, website_id, url, title, category, lighthouse, seo, meta_data, is_analyzed, analyzed_at, created_at, updated_at
FROM pages WHERE website_id = $1 ORDER BY id`, websiteID)
	if err != nil {
		return nil, fmt.Errorf("select pages: %w", err)
	}
	defer rows.Close()

	var pages []analyzer.Page
	for rows.Next() {
		var p analyzer.Page
		var title, category *string
		var lighthouse, seo, metaData []byte
		if err := rows.Scan(&p.ID, &p.WebsiteID, &p.URL, &title, &category,
			&lighthouse, &seo, &metaData, &p.IsAnalyzed, &p.AnalyzedAt,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		if title != nil {
			p.Title = *title
		}
		if category != nil {
			p.Category = *category
		}
		if len(lighthouse) > 0 {
			if err := json.Unmarshal(lighthouse, &p.Lighthouse); err != nil {
				return nil, fmt.Errorf("decode page lighthouse: %w", err)
			}
		}
		if len(seo) > 0 {
			if err := json.Unmarshal(seo, &p.SEO); err != nil {
				return nil, fmt.Errorf("decode page seo: %w", err)
			}
		}
		if len(metaData) > 0 {
			if err := json.Unmarshal(metaData, &p.MetaData); err != nil {
				return nil, fmt.Errorf("decode page meta: %w", err)
			}
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return pages, nil
}

func (s *Store) updateWebsite(ctx context.Context, id int64, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update website: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("website %d: %w", id, analyzer.ErrNotFound)
	}
	return nil
}

func (s *Store) updatePage(ctx context.Context, websiteID int64, url, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("page %q of website %d: %w", url, websiteID, analyzer.ErrNotFound)
	}
	return nil
}
