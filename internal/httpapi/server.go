package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nullteam/toneengine/internal/cadence"
	"github.com/nullteam/toneengine/internal/metrics"
	"github.com/nullteam/toneengine/internal/tonesource"
)

// Server serves the admin/diagnostics HTTP surface: health, Prometheus
// metrics, and read-only introspection of the cadence registry and
// source pool. It never carries audio.
type Server struct {
	server   *http.Server
	logger   *slog.Logger
	registry *cadence.Registry
	pool     *tonesource.Pool
	metrics  *metrics.Metrics

	startTime time.Time
	mu        sync.RWMutex
}

// Config controls the admin HTTP listener.
type Config struct {
	Address string
	Enabled bool
}

// New builds a Server bound to address, backed by registry and pool
// for introspection and m for request metrics. The returned Server is
// not yet listening; call Start.
func New(cfg Config, logger *slog.Logger, registry *cadence.Registry, pool *tonesource.Pool, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:    logger,
		registry:  registry,
		pool:      pool,
		metrics:   m,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.withMetrics("/healthz", s.handleHealthz))
	mux.HandleFunc("/cadences", s.withMetrics("/cadences", s.handleCadences))
	mux.HandleFunc("/sources", s.withMetrics("/sources", s.handleSources))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", s.withMetrics("/", s.handleRoot))
}

// withMetrics wraps handler with request-duration and error-rate
// recording, matching the pattern used across the rest of the engine's
// instrumented call paths.
func (s *Server) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(ww, r)

		if s.metrics == nil {
			return
		}
		duration := time.Since(start).Seconds()
		status := fmt.Sprintf("%d", ww.statusCode)
		s.metrics.RecordHTTPRequest(r.Method, endpoint, status, duration)
		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			s.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start begins serving in a background goroutine. It returns
// immediately; listen errors are logged, not returned, since they
// surface after the caller has already moved on to running the core.
func (s *Server) Start() {
	s.logger.Info("starting admin HTTP server", "address", s.server.Addr)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("admin HTTP server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the listener, waiting for in-flight
// requests to finish or ctx to expire.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping admin HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	health := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

func (s *Server) handleCadences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	names := s.registry.Keys()
	response := map[string]any{
		"count":    len(names),
		"cadences": names,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	names := s.pool.ActiveNames()
	response := map[string]any{
		"count":   len(names),
		"sources": names,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	doc := map[string]any{
		"service": "toneengine admin API",
		"endpoints": map[string]string{
			"GET /healthz":  "liveness check",
			"GET /metrics":  "Prometheus metrics",
			"GET /cadences": "registered cadence names",
			"GET /sources":  "currently shared, running tone sources",
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}
