// Package gateway exposes the web dashboard's API surface over HTTP: chat
// routes forwarded to the backend, and a statistics route that degrades to
// cached data instead of failing when the backend is slow.
package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hungg523/helpdesk-assistant/internal/stats"
)

// Server is the gateway HTTP server.
type Server struct {
	router chi.Router
	proxy  *chatProxy
	stats  *stats.Client
	log    *slog.Logger
}

// Options configures a gateway server.
type Options struct {
	BackendURL string
	Stats      *stats.Client
	Logger     *slog.Logger
}

// New creates a gateway server with routes mounted.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	proxy, err := newChatProxy(opts.BackendURL, opts.Logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		proxy:  proxy,
		stats:  opts.Stats,
		log:    opts.Logger,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/api/statistics", s.handleStatistics)
	r.Handle("/api/chat/*", s.proxy)
	r.Handle("/api/Chat/*", s.proxy)
}

// Handler returns the mounted router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatistics serves the dashboard numbers. Backend failures fall back
// to the last cached snapshot so the dashboard renders something instead of
// an error page.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "statistics not configured"})
		return
	}

	q := r.URL.Query()
	ov, stale, err := s.stats.Overview(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		s.log.Error("statistics unavailable", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "statistics unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  ov,
		"stale": stale,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}
