package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/elaw611/isy-bridge/internal/classify"
	"github.com/elaw611/isy-bridge/internal/entity"
)

// defaultMetricsWindow is the lookback applied when no range is given.
const defaultMetricsWindow = 24 * time.Hour

// handleListEntities returns entities, optionally filtered by category.
//
// GET /api/v1/entities?category=light
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	var entities []entity.Entity
	if category != "" {
		entities = s.registry.ListByCategory(classify.Category(category))
	} else {
		entities = s.registry.List()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entities": entities,
		"count":    len(entities),
	})
}

// handleGetEntity returns one entity by id.
//
// GET /api/v1/entities/{id}
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	e, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, entity.ErrEntityNotFound) {
			writeNotFound(w, "entity not found")
			return
		}
		writeInternalError(w, "entity lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, e)
}

// handleEntityHistory returns recent state history for an entity.
//
// GET /api/v1/entities/{id}/history?limit=50
func (s *Server) handleEntityHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "state history is not configured")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := s.registry.Get(id); err != nil {
		writeNotFound(w, "entity not found")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries, err := s.history.GetHistory(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("history query failed", "entity", id, "error", err)
		writeInternalError(w, "history query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entity_id": id,
		"history":   entries,
		"count":     len(entries),
	})
}

// handleEntityMetrics returns time-series telemetry for an entity.
//
// GET /api/v1/entities/{id}/metrics?start=2026-08-23T00:00:00Z&end=2026-08-24T00:00:00Z
func (s *Server) handleEntityMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil || !s.metrics.IsConnected() {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "time-series database is not available")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := s.registry.Get(id); err != nil {
		writeNotFound(w, "entity not found")
		return
	}

	end := time.Now().UTC()
	start := end.Add(-defaultMetricsWindow)

	if v := r.URL.Query().Get("start"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "start must be an RFC3339 timestamp")
			return
		}
		start = parsed
	}
	if v := r.URL.Query().Get("end"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "end must be an RFC3339 timestamp")
			return
		}
		end = parsed
	}
	if !end.After(start) {
		writeBadRequest(w, "end must be after start")
		return
	}

	points, err := s.metrics.QueryEntityMetrics(r.Context(), id, start, end)
	if err != nil {
		s.logger.Error("metrics query failed", "entity", id, "error", err)
		writeInternalError(w, "metrics query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entity_id": id,
		"start":     start,
		"end":       end,
		"points":    points,
		"count":     len(points),
	})
}

// handleCategories returns the categories present in the registry.
//
// GET /api/v1/categories
func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": s.registry.Categories(),
	})
}

// handleListPrograms returns the program entities.
//
// GET /api/v1/programs
func (s *Server) handleListPrograms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"programs": s.listByKind(entity.KindProgram),
	})
}

// handleListVariables returns the variable entities.
//
// GET /api/v1/variables
func (s *Server) handleListVariables(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"variables": s.listByKind(entity.KindVariable),
	})
}

// handleWeather returns the classified weather measurements.
//
// GET /api/v1/weather
func (s *Server) handleWeather(w http.ResponseWriter, _ *http.Request) {
	weather := s.weather
	if weather == nil {
		weather = []classify.WeatherEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"weather": weather,
		"count":   len(weather),
	})
}

// listByKind filters the registry by entity kind, preserving order.
func (s *Server) listByKind(kind entity.Kind) []entity.Entity {
	filtered := []entity.Entity{}
	for _, e := range s.registry.List() {
		if e.Kind == kind {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
