// Package memory provides a mutex-guarded in-process store. It backs tests
// and single-shot synchronous runs where no database is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// Store keeps all records in maps guarded by a single mutex.
type Store struct {
	mu       sync.Mutex
	clock    analyzer.Clock
	nextID   int64
	websites map[int64]*analyzer.Website
	byURL    map[string]int64
	bySlug   map[string]int64
	pages    map[int64]map[string]*analyzer.Page
	pageID   int64
}

// New builds an empty store.
func New(clock analyzer.Clock) *Store {
	return &Store{
		clock:    clock,
		nextID:   1,
		websites: make(map[int64]*analyzer.Website),
		byURL:    make(map[string]int64),
		bySlug:   make(map[string]int64),
		pages:    make(map[int64]map[string]*analyzer.Page),
		pageID:   1,
	}
}

func (s *Store) FindOrCreateWebsite(_ context.Context, url, goal string, tags []string) (analyzer.Website, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byURL[url]; ok {
		return cloneWebsite(s.websites[id]), false, nil
	}

	slug := analyzer.UniqueSlug(analyzer.DeriveSlug(url), func(candidate string) bool {
		_, taken := s.bySlug[candidate]
		return taken
	})

	now := s.clock.Now()
	w := &analyzer.Website{
		ID:        s.nextID,
		URL:       url,
		Slug:      slug,
		Status:    analyzer.StatusPending,
		Goal:      goal,
		Tags:      append([]string(nil), tags...),
		Stages:    make(map[analyzer.Stage]analyzer.StageState),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	s.websites[w.ID] = w
	s.byURL[url] = w.ID
	s.bySlug[slug] = w.ID
	return *w, true, nil
}

func (s *Store) GetWebsite(_ context.Context, id int64) (analyzer.Website, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.websites[id]
	if !ok {
		return analyzer.Website{}, fmt.Errorf("website %d: %w", id, analyzer.ErrNotFound)
	}
	return cloneWebsite(w), nil
}

func (s *Store) GetWebsiteBySlug(_ context.Context, slug string) (analyzer.Website, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.bySlug[slug]
	if !ok {
		return analyzer.Website{}, fmt.Errorf("website %q: %w", slug, analyzer.ErrNotFound)
	}
	return cloneWebsite(s.websites[id]), nil
}

func (s *Store) SetStatus(_ context.Context, id int64, status analyzer.Status) error {
	return s.update(id, func(w *analyzer.Website) {
		w.Status = status
	})
}

func (s *Store) MergeWebsiteSEO(_ context.Context, id int64, fields map[string]any) error {
	return s.update(id, func(w *analyzer.Website) {
		if w.SEO == nil {
			w.SEO = make(map[string]any, len(fields))
		}
		for k, v := range fields {
			w.SEO[k] = v
		}
	})
}

func (s *Store) SetSitemapData(_ context.Context, id int64, data analyzer.SitemapData) error {
	return s.update(id, func(w *analyzer.Website) {
		w.SitemapData = &data
	})
}

func (s *Store) SetLighthouseSummary(_ context.Context, id int64, summary analyzer.LighthouseSummary) error {
	return s.update(id, func(w *analyzer.Website) {
		w.Lighthouse = &summary
	})
}

func (s *Store) SetCompany(_ context.Context, id int64, company analyzer.Company) error {
	return s.update(id, func(w *analyzer.Website) {
		w.Company = &company
	})
}

func (s *Store) MarkProcessed(_ context.Context, id int64) error {
	return s.update(id, func(w *analyzer.Website) {
		w.IsProcessed = true
	})
}

func (s *Store) MarkStageDispatched(_ context.Context, id int64, stage analyzer.Stage) error {
	return s.update(id, func(w *analyzer.Website) {
		if w.Stages == nil {
			w.Stages = make(map[analyzer.Stage]analyzer.StageState)
		}
		w.Stages[stage] = analyzer.StageDispatched
	})
}

func (s *Store) CompleteStage(_ context.Context, id int64, stage analyzer.Stage, state analyzer.StageState) (map[analyzer.Stage]analyzer.StageState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.websites[id]
	if !ok {
		return nil, fmt.Errorf("website %d: %w", id, analyzer.ErrNotFound)
	}
	if w.Stages == nil {
		w.Stages = make(map[analyzer.Stage]analyzer.StageState)
	}
	w.Stages[stage] = state
	w.UpdatedAt = s.clock.Now()

	snapshot := make(map[analyzer.Stage]analyzer.StageState, len(w.Stages))
	for k, v := range w.Stages {
		snapshot[k] = v
	}
	return snapshot, nil
}

func (s *Store) UpsertPage(_ context.Context, websiteID int64, url, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.websites[websiteID]; !ok {
		return fmt.Errorf("website %d: %w", websiteID, analyzer.ErrNotFound)
	}
	byURL, ok := s.pages[websiteID]
	if !ok {
		byURL = make(map[string]*analyzer.Page)
		s.pages[websiteID] = byURL
	}
	now := s.clock.Now()
	if p, ok := byURL[url]; ok {
		p.Category = category
		p.UpdatedAt = now
		return nil
	}
	byURL[url] = &analyzer.Page{
		ID:        s.pageID,
		WebsiteID: websiteID,
		URL:       url,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.pageID++
	return nil
}

func (s *Store) UpdatePageSEO(_ context.Context, websiteID int64, url string, report analyzer.SEOReport) error {
	return s.updatePage(websiteID, url, func(p *analyzer.Page) {
		p.SEO = &report
		if report.Title != nil {
			p.Title = report.Title.Content
		}
	})
}

func (s *Store) UpdatePageLighthouse(_ context.Context, websiteID int64, url string, result analyzer.LighthouseResult, analyzedAt time.Time) error {
	return s.updatePage(websiteID, url, func(p *analyzer.Page) {
		p.Lighthouse = &result
		p.IsAnalyzed = true
		p.AnalyzedAt = &analyzedAt
	})
}

func (s *Store) ListPages(_ context.Context, websiteID int64) ([]analyzer.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byURL := s.pages[websiteID]
	out := make([]analyzer.Page, 0, len(byURL))
	for _, p := range byURL {
		out = append(out, *p)
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) update(id int64, fn func(*analyzer.Website)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.websites[id]
	if !ok {
		return fmt.Errorf("website %d: %w", id, analyzer.ErrNotFound)
	}
	fn(w)
	w.UpdatedAt = s.clock.Now()
	return nil
}

func (s *Store) updatePage(websiteID int64, url string, fn func(*analyzer.Page)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[websiteID][url]
	if !ok {
		return fmt.Errorf("page %q: %w", url, analyzer.ErrNotFound)
	}
	fn(p)
	p.UpdatedAt = s.clock.Now()
	return nil
}

func cloneWebsite(w *analyzer.Website) analyzer.Website {
	out := *w
	if w.SEO != nil {
		out.SEO = make(map[string]any, len(w.SEO))
		for k, v := range w.SEO {
			out.SEO[k] = v
		}
	}
	if w.Stages != nil {
		out.Stages = make(map[analyzer.Stage]analyzer.StageState, len(w.Stages))
		for k, v := range w.Stages {
			out.Stages[k] = v
		}
	}
	return out
}
