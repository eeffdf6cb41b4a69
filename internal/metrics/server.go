package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server exposes the ops endpoints: /health and /metrics.
type Server struct {
	srv    *http.Server
	logger zerolog.Logger
}

// NewServer builds the ops HTTP server on the given address.
func NewServer(addr string, m *Metrics, logger zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
		m.Registry(), promhttp.HandlerOpts{},
	))

	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger.With().Str("component", "ops-server").Logger(),
	}
}

// Start serves in a background goroutine.
func (s *Server) Start() {
	s.logger.Info().Str("addr", s.srv.Addr).Msg("starting ops server")
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("ops server failed")
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
