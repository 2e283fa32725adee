package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

type submitRequest struct {
	URL  string   `json:"url"`
	Goal string   `json:"goal,omitempty"`
	Tags []string `json:"tags,omitempty"`
}

// submitWebsite handles POST /v1/websites. New submissions are queued for the
// orchestrator and answered with 202; resubmissions of a known URL return the
// existing record with 200.
func (s *Server) submitWebsite(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", s.logger)
		return
	}
	normalized, err := analyzer.NormalizeURL(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}

	website, created, err := s.store.FindOrCreateWebsite(r.Context(), normalized, req.Goal, req.Tags)
	if err != nil {
		s.logger.Error("website create failed", zap.String("url", normalized), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create website", s.logger)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, websiteResponse(website), s.logger)
		return
	}

	if err := s.store.SetStatus(r.Context(), website.ID, analyzer.StatusQueued); err != nil {
		s.logger.Error("status update failed", zap.Int64("website_id", website.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to queue analysis", s.logger)
		return
	}
	website.Status = analyzer.StatusQueued

	task := analyzer.Task{WebsiteID: website.ID, Stage: analyzer.StageWebsite}
	if err := s.scheduler.Schedule(r.Context(), task, 0); err != nil {
		s.logger.Error("schedule failed", zap.Int64("website_id", website.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to queue analysis", s.logger)
		return
	}

	s.logger.Info("analysis queued",
		zap.Int64("website_id", website.ID),
		zap.String("slug", website.Slug),
		zap.String("url", website.URL))
	writeJSON(w, http.StatusAccepted, websiteResponse(website), s.logger)
}

// getWebsite handles GET /v1/websites/{slug}.
func (s *Server) getWebsite(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	website, err := s.store.GetWebsiteBySlug(r.Context(), slug)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "website not found", s.logger)
			return
		}
		s.logger.Error("website load failed", zap.String("slug", slug), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load website", s.logger)
		return
	}
	writeJSON(w, http.StatusOK, websiteResponse(website), s.logger)
}

// listPages handles GET /v1/websites/{slug}/pages.
func (s *Server) listPages(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	website, err := s.store.GetWebsiteBySlug(r.Context(), slug)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "website not found", s.logger)
			return
		}
		s.logger.Error("website load failed", zap.String("slug", slug), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load website", s.logger)
		return
	}
	pages, err := s.store.ListPages(r.Context(), website.ID)
	if err != nil {
		s.logger.Error("pages load failed", zap.Int64("website_id", website.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load pages", s.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": pages}, s.logger)
}

func websiteResponse(w analyzer.Website) map[string]any {
	return map[string]any{"website": w}
}

func isNotFound(err error) bool {
	return errors.Is(err, analyzer.ErrNotFound)
}
