// Package web serves the dashboard state over HTTP: JSON snapshots, chart
// series, archived aggregates, a WebSocket push stream, Prometheus metrics
// and a liveness probe.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/tejusbharadwaj/renugrid/internal/dashboard"
	"github.com/tejusbharadwaj/renugrid/internal/metrics"
	"github.com/tejusbharadwaj/renugrid/internal/models"
	"github.com/tejusbharadwaj/renugrid/internal/telemetry"
)

// Archive answers aggregated queries over stored samples.
type Archive interface {
	Query(ctx context.Context, start, end time.Time, window string, aggregation string) ([]models.TimeSeriesData, error)
}

// Config holds the HTTP server settings.
type Config struct {
	RateLimit      float64 // Requests per second on /api routes
	RateLimitBurst int
	CacheSize      int // Encoded responses kept in memory
	Location       *time.Location
}

// DefaultConfig mirrors the configuration defaults.
func DefaultConfig() Config {
	return Config{
		RateLimit:      5.0,
		RateLimitBurst: 10,
		CacheSize:      128,
		Location:       time.Local,
	}
}

// Server exposes the dashboard store over HTTP.
type Server struct {
	store     *dashboard.Store
	archive   Archive
	gatherer  prometheus.Gatherer
	metrics   *metrics.Metrics
	logger    *logrus.Logger
	loc       *time.Location
	cache     *responseCache
	limiter   *rate.Limiter
	validator *RequestValidator
	upgrader  websocket.Upgrader
	mux       *http.ServeMux
	handler   http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithArchive enables /api/archive.
func WithArchive(a Archive) Option {
	return func(s *Server) { s.archive = a }
}

// WithGatherer enables /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func NewServer(store *dashboard.Store, cfg Config, logger *logrus.Logger, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.RateLimit <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, errors.New("rate limit and burst must be positive")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	cache, err := newResponseCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:     store,
		logger:    logger,
		loc:       cfg.Location,
		cache:     cache,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		validator: NewRequestValidator(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		mux: http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	s.handler = withRequestID(withLogging(s.logger, s.metrics, withRateLimit(s.limiter, s.mux)))
	return s, nil
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Listen serves on addr and blocks until ctx is done or the server fails.
func (s *Server) Listen(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	s.logger.WithField("addr", addr).Info("Starting HTTP server")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("GET /api/archive", s.handleArchive)
	s.mux.HandleFunc("GET /api/stream", s.handleStream)
	if s.gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.store.Snapshot()
	key := fmt.Sprintf("state:%d:%t", st.Seq, st.Loading)

	body, err := s.cache.encode(key, func() interface{} {
		return NewStateView(st, s.loc)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeBody(w, http.StatusOK, body)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	st := s.store.Snapshot()
	key := fmt.Sprintf("history:%d", st.Seq)

	body, err := s.cache.encode(key, func() interface{} {
		return telemetry.NewSeries(st.History, s.loc)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeBody(w, http.StatusOK, body)
}

type archiveResponse struct {
	Window      string                  `json:"window"`
	Aggregation string                  `json:"aggregation"`
	Data        []models.TimeSeriesData `json:"data"`
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, errors.New("archive is not enabled"))
		return
	}

	q := r.URL.Query()
	start, err := parseTime(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid start: %w", err))
		return
	}
	end, err := parseTime(q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid end: %w", err))
		return
	}
	window := valueOr(q.Get("window"), "1h")
	aggregation := valueOr(q.Get("aggregation"), "AVG")

	if err := s.validator.Validate(start, end, window, aggregation); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	data, err := s.archive.Query(r.Context(), start, end, window, aggregation)
	if err != nil {
		s.logger.WithError(err).Error("Archive query failed")
		writeError(w, http.StatusInternalServerError, fmt.Errorf("query failed: %w", err))
		return
	}
	if data == nil {
		data = []models.TimeSeriesData{}
	}

	writeJSON(w, http.StatusOK, archiveResponse{
		Window:      window,
		Aggregation: aggregation,
		Data:        data,
	})
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBody(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
