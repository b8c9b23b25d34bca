// Package http exposes the service's operational endpoints and the
// read-only API the dashboard pulls its tables and aggregates from.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// defaultMapPoints bounds the map-point list in summaries unless the
// caller asks for fewer.
const defaultMapPoints = 200

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// TableProvider hands out the latest canonical table per source.
type TableProvider interface {
	Sources() []string
	Result(source string) (pipeline.LoadResult, bool)
}

// Server exposes health, readiness, metrics, and the events/summary API.
type Server struct {
	httpServer *http.Server
	provider   TableProvider
	logger     *slog.Logger
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(addr string, provider TableProvider, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		provider: provider,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/sources", s.handleSources)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/summary", s.handleSummary)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sources": s.provider.Sources()})
}

// eventsResponse is the table payload the dashboard renders.
type eventsResponse struct {
	Source      string         `json:"source"`
	RefreshedAt time.Time      `json:"refreshed_at"`
	Diagnostic  string         `json:"diagnostic,omitempty"`
	Count       int            `json:"count"`
	Events      []domain.Event `json:"events"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	result, source, ok := s.lookupSource(w, r)
	if !ok {
		return
	}

	events := parseFilter(r).Apply(result.Events)
	if limit := parseLimit(r, 0); limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Source:      source,
		RefreshedAt: result.RefreshedAt,
		Diagnostic:  result.Diagnostic,
		Count:       len(events),
		Events:      events,
	})
}

// summaryResponse carries the aggregates the dashboard charts are built
// from: daily counts and scores, level distribution, country ranking, and
// the highest-scoring located events for the map.
type summaryResponse struct {
	Source      string                    `json:"source"`
	RefreshedAt time.Time                 `json:"refreshed_at"`
	Diagnostic  string                    `json:"diagnostic,omitempty"`
	Total       int                       `json:"total"`
	Daily       []domain.DailyStat        `json:"daily"`
	Levels      map[domain.AlertLevel]int `json:"levels"`
	TopCountry  []domain.CountryCount     `json:"top_countries"`
	MapPoints   []domain.Event            `json:"map_points"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	result, source, ok := s.lookupSource(w, r)
	if !ok {
		return
	}

	events := parseFilter(r).Apply(result.Events)

	writeJSON(w, http.StatusOK, summaryResponse{
		Source:      source,
		RefreshedAt: result.RefreshedAt,
		Diagnostic:  result.Diagnostic,
		Total:       len(events),
		Daily:       domain.DailyStats(events),
		Levels:      domain.LevelDistribution(events),
		TopCountry:  domain.TopCountries(events, 10),
		MapPoints:   domain.TopByScore(events, parseLimit(r, defaultMapPoints)),
	})
}

func (s *Server) lookupSource(w http.ResponseWriter, r *http.Request) (pipeline.LoadResult, string, bool) {
	source := r.URL.Query().Get("source")
	if source == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "source query parameter is required"})
		return pipeline.LoadResult{}, "", false
	}
	result, ok := s.provider.Result(source)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown or not yet loaded source: " + source})
		return pipeline.LoadResult{}, "", false
	}
	return result, source, true
}

func parseFilter(r *http.Request) domain.Filter {
	q := r.URL.Query()

	f := domain.Filter{
		Types:     q["type"],
		Countries: q["country"],
	}
	for _, lvl := range q["level"] {
		f.Levels = append(f.Levels, domain.ParseAlertLevel(lvl))
	}
	if from, err := time.Parse("2006-01-02", q.Get("from")); err == nil {
		f.From = from
	}
	if to, err := time.Parse("2006-01-02", q.Get("to")); err == nil {
		f.To = to
	}
	return f
}

func parseLimit(r *http.Request, def int) int {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
