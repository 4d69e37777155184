package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/status", s.handleStatus)
			r.Get("/categories", s.handleCategories)

			// Entity endpoints
			r.Route("/entities", func(r chi.Router) {
				r.Get("/", s.handleListEntities)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetEntity)
					r.Get("/history", s.handleEntityHistory)
					r.Get("/metrics", s.handleEntityMetrics)
				})
			})

			r.Get("/programs", s.handleListPrograms)
			r.Get("/variables", s.handleListVariables)
			r.Get("/weather", s.handleWeather)
			r.Get("/audit", s.handleListAudit)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleStatus returns bridge connectivity and registry statistics.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	controllerConnected := false
	if s.controller != nil {
		controllerConnected = s.controller.Connected()
	}
	mqttConnected := false
	if s.mqtt != nil {
		mqttConnected = s.mqtt.IsConnected()
	}
	metricsConnected := false
	if s.metrics != nil {
		metricsConnected = s.metrics.IsConnected()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"version":              s.version,
		"uptime_seconds":       int(time.Since(s.started).Seconds()),
		"controller_connected": controllerConnected,
		"mqtt_connected":       mqttConnected,
		"metrics_connected":    metricsConnected,
		"entities":             s.registry.GetStats(),
	})
}
