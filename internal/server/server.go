// Package server exposes the routing pipeline over HTTP.
//
// Routes:
//
//	GET    /healthz               liveness
//	GET    /places                routable destinations
//	GET    /graph/stats           size of the loaded graph
//	POST   /route                 stateless route query
//	POST   /sessions              open a session
//	POST   /sessions/{id}/route   route query that supersedes the session's previous one
//	DELETE /sessions/{id}         close a session
//	GET    /metrics               Prometheus metrics
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/wayfinder/pkg/pipeline"
)

// Defaults for [Options].
const (
	DefaultRouteTimeout  = 5 * time.Second
	DefaultSessionIdle   = 30 * time.Minute
	DefaultReadTimeout   = 10 * time.Second
	DefaultWriteTimeout  = 30 * time.Second
	shutdownGracePeriod  = 10 * time.Second
	maxRequestBodyLength = 64 << 10
)

// Options configures a [Server].
type Options struct {
	// RouteTimeout bounds one route query.
	RouteTimeout time.Duration
	// SessionIdle is how long an unused session survives.
	SessionIdle  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Gatherer backs /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer
	Logger   *log.Logger
}

func (o *Options) defaults() {
	if o.RouteTimeout <= 0 {
		o.RouteTimeout = DefaultRouteTimeout
	}
	if o.SessionIdle <= 0 {
		o.SessionIdle = DefaultSessionIdle
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.Gatherer == nil {
		o.Gatherer = prometheus.DefaultGatherer
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Server answers route queries against a [pipeline.Navigator].
type Server struct {
	nav    *pipeline.Navigator
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New creates a server for nav.
func New(nav *pipeline.Navigator, opts Options) *Server {
	opts.defaults()
	s := &Server{nav: nav, opts: opts, logger: opts.Logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Get("/places", s.handlePlaces)
	r.Get("/graph/stats", s.handleStats)
	r.Post("/route", s.handleRoute)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleNewSession)
		r.Post("/{id}/route", s.handleSessionRoute)
		r.Delete("/{id}", s.handleCloseSession)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. Idle sessions are pruned while the server runs.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	go s.pruneLoop(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) pruneLoop(ctx context.Context) {
	interval := s.opts.SessionIdle / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.nav.PruneSessions(s.opts.SessionIdle); n > 0 {
				s.logger.Debug("pruned idle sessions", "count", n)
			}
		}
	}
}
