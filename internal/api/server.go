// Package api serves run status, manual rebuild triggers and metrics while
// routegen watches for changes.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/routegen/internal/events"
)

// Requester accepts rebuild requests.
type Requester interface {
	Request(reason string, force bool)
}

// Server is the watch-mode HTTP server.
type Server struct {
	Addr string

	router  *chi.Mux
	server  *http.Server
	history *events.History
	target  Requester
	metrics http.Handler
	path    string
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts h at path.
func WithMetrics(path string, h http.Handler) Option {
	return func(s *Server) {
		s.path, s.metrics = path, h
	}
}

// WithRebuild enables POST /rebuild.
func WithRebuild(target Requester) Option {
	return func(s *Server) { s.target = target }
}

// NewServer creates a server reporting runs recorded in history.
func NewServer(addr string, history *events.History, opts ...Option) *Server {
	s := &Server{
		Addr:    addr,
		router:  chi.NewRouter(),
		history: history,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/runs", s.handleListRuns)
	s.router.Get("/runs/latest", s.handleLatestRun)
	s.router.Get("/runs/{id}", s.handleGetRun)
	if s.target != nil {
		s.router.Post("/rebuild", s.handleRebuild)
	}
	if s.metrics != nil && s.path != "" {
		s.router.Handle(s.path, s.metrics)
	}
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown; it returns http.ErrServerClosed after a
// graceful stop.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Response is the JSON envelope of every non-metrics endpoint.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// Error writes an error response.
func (s *Server) Error(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, Response{Error: message})
}

// Success writes a success response.
func (s *Server) Success(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, Response{Success: true, Data: data})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.history.List()
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if limit < len(runs) {
			runs = runs[:limit]
		}
	}
	s.Success(w, http.StatusOK, runs)
}

func (s *Server) handleLatestRun(w http.ResponseWriter, _ *http.Request) {
	latest := s.history.Latest()
	if latest == nil {
		s.Error(w, http.StatusNotFound, "no run has finished yet")
		return
	}
	s.Success(w, http.StatusOK, latest)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, ok := s.history.Get(id)
	if !ok {
		s.Error(w, http.StatusNotFound, "run not found")
		return
	}
	s.Success(w, http.StatusOK, run)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	s.target.Request("api", force)
	s.Success(w, http.StatusAccepted, map[string]bool{"force": force})
}
