// Package server provides the HTTP configuration surface and live event
// stream.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/binding"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Controller is the runtime the status endpoints report on.
type Controller interface {
	Status() app.Status
	SetEnabled(enabled bool)
}

// Config holds the server configuration. Nil fields disable their routes.
type Config struct {
	Bindings   *binding.Store
	Events     *store.EventRepository
	Controller Controller
	Metrics    *metrics.Metrics
	Hub        *Hub
	Logger     *slog.Logger
}

// Server represents the HTTP server.
type Server struct {
	config Config
	router chi.Router
	start  time.Time
	logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		start:  time.Now(),
		logger: config.Logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Route("/api/gestures", api.NewGestureHandler().Routes)

	if s.config.Bindings != nil {
		r.Route("/api/bindings", api.NewBindingHandler(s.config.Bindings, s.logger).Routes)
	}
	if s.config.Controller != nil {
		r.Get("/api/status", s.handleStatus)
		r.Put("/api/detection", s.handleDetection)
	}
	if s.config.Events != nil || s.config.Hub != nil {
		r.Route("/api/events", func(r chi.Router) {
			if s.config.Events != nil {
				api.NewEventHandler(s.config.Events).Routes(r)
			}
			if s.config.Hub != nil {
				r.Get("/ws", s.config.Hub.ServeHTTP)
			}
		})
	}
	if s.config.Metrics != nil {
		r.Handle("/metrics", s.config.Metrics.Handler())
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// handleStatus handles GET /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Controller.Status())
}

type detectionRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleDetection handles PUT /api/detection {"enabled": bool}.
func (s *Server) handleDetection(w http.ResponseWriter, r *http.Request) {
	var req detectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": `body must be {"enabled": bool}`})
		return
	}
	s.config.Controller.SetEnabled(*req.Enabled)
	writeJSON(w, http.StatusOK, s.config.Controller.Status())
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
