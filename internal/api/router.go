package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-gree/internal/auth"
)

// healthCheckTimeout bounds dependency checks on /health.
const healthCheckTimeout = 2 * time.Second

// defaultWSPath is used when websocket.path is not configured.
const defaultWSPath = "/ws"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// WebSocket (auth via ticket, validated in handler)
		r.Get(s.wsPath(), s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/ws-ticket", s.handleWSTicket)

			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Get("/history", s.handleGetDeviceHistory)

					r.Group(func(r chi.Router) {
						r.Use(s.requirePermission(auth.PermDeviceOperate))
						r.Post("/commands", s.handleDeviceCommand)
						r.Post("/sync", s.handleDeviceSync)
					})
				})
			})
		})
	})

	return r
}

// wsPath returns the configured WebSocket path under /api/v1.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return defaultWSPath
	}
	return s.wsCfg.Path
}

// handleHealth returns the server health status.
// Degraded dependencies are reported but do not change the status code.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"version": s.version,
	}

	if s.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.database.HealthCheck(ctx); err != nil {
			resp["status"] = "degraded"
			resp["database"] = "error"
		} else {
			resp["database"] = "ok"
		}
	}

	if s.bridge != nil {
		metrics := s.bridge.GetMetrics()
		resp["bridge"] = metrics
		if !metrics.Connected {
			resp["status"] = "degraded"
		}
	}

	resp["websocket_clients"] = s.hub.ClientCount()
	writeJSON(w, http.StatusOK, resp)
}
