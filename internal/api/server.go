// Package api serves a read-only view of the station over HTTP: status, a
// health probe, an event stream and the Prometheus metrics. It is meant for a
// loopback address and a local scrape agent.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/weatherhat/internal/events"
	"github.com/smazurov/weatherhat/internal/logging"
	"github.com/smazurov/weatherhat/internal/station"
	"github.com/smazurov/weatherhat/internal/version"
)

// Station is the part of the controller the API reads.
type Station interface {
	Mode() station.Mode
	Ping(ctx context.Context) error
}

// Options configures the server.
type Options struct {
	Station        Station
	Bus            *events.Bus  // optional, enables GET /api/events
	MetricsHandler http.Handler // optional, mounted at GET /metrics
	PingTimeout    time.Duration
}

// Server wraps the huma API and its mux.
type Server struct {
	api     huma.API
	mux     *http.ServeMux
	options *Options
	logger  *slog.Logger
}

// NewServer registers every route on a fresh mux.
func NewServer(opts *Options) *Server {
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = time.Second
	}

	mux := http.NewServeMux()

	config := huma.DefaultConfig("weatherhat", version.Get().Version)
	config.Info.Description = "Rainbow HAT weather station status"
	config.Servers = []*huma.Server{}

	s := &Server{
		api:     humago.New(mux, config),
		mux:     mux,
		options: opts,
		logger:  logging.GetLogger("http"),
	}
	s.api.UseMiddleware(HTTPLoggingMiddleware)

	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}
	s.registerStationRoutes()
	s.registerSSERoutes()

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Serve listens on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info("Serving status API", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
