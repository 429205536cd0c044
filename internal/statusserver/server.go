// Package statusserver exposes the fuzz driver's live state over HTTP,
// following the rest of the codebase's chi-router-plus-promhttp convention.
package statusserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/covguard/fuzzcheck/internal/observability"
)

// Stats is a point-in-time snapshot of the fuzz driver's progress, served
// as JSON at /stats.
type Stats struct {
	RunID             string  `json:"run_id"`
	Iterations        int64   `json:"iterations"`
	PoolSize          int     `json:"pool_size"`
	PoolScore         float64 `json:"pool_score"`
	AverageComplexity float64 `json:"average_complexity"`
	Crashes           int64   `json:"crashes"`
	Uptime            string  `json:"uptime"`
}

// StatsSource is implemented by whatever owns the live fuzz loop state;
// the server never touches the pool or driver directly.
type StatsSource interface {
	Stats() Stats
}

// Server is fuzzcheck's status HTTP server.
type Server struct {
	source StatsSource
}

// New returns a Server reporting on source.
func New(source StatsSource) *Server {
	return &Server{source: source}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.source.Stats())
	})

	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, observability.RecentEvents(200))
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
