// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vyrodovalexey/shopapi/internal/config"
	"github.com/vyrodovalexey/shopapi/internal/handler"
	"github.com/vyrodovalexey/shopapi/internal/metrics"
	"github.com/vyrodovalexey/shopapi/internal/middleware"
	"github.com/vyrodovalexey/shopapi/internal/store"
)

// Server runs the catalog API and, when a probe port is configured, a
// separate probe server for health checks and metrics scraping.
type Server struct {
	httpServer  *http.Server
	probeServer *http.Server
	router      *mux.Router
	handler     http.Handler
	config      *config.Config
	logger      *zap.Logger
	registry    *prometheus.Registry
	wsHandler   *handler.WebSocketHandler
}

// New creates a new Server instance.
func New(cfg *config.Config, logger *zap.Logger, itemStore store.Store) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	s.setupMetrics(itemStore)
	s.setupMiddleware()
	s.setupRoutes(itemStore)
	s.setupHTTPServers(itemStore)

	return s
}

// setupMetrics registers the runtime and catalog collectors.
func (s *Server) setupMetrics(itemStore store.Store) {
	if !s.config.MetricsEnabled {
		return
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewCatalogCollector(itemStore, s.logger),
	)
}

// setupMiddleware configures the middleware chain run for matched routes.
func (s *Server) setupMiddleware() {
	// First in the stack is outermost.
	stack := []middleware.Middleware{
		middleware.Recovery(s.logger),
		middleware.RequestID(),
	}
	if s.config.MetricsEnabled {
		stack = append(stack, middleware.Metrics(middleware.NewHTTPMetrics(s.registry)))
	}
	stack = append(stack, middleware.Logging(s.logger))

	// Route-matched so Metrics can read the route template.
	s.router.Use(mux.MiddlewareFunc(middleware.Chain(stack...)))

	// CORS wraps the whole router: mux skips Use middleware for preflights
	// that match no route.
	s.handler = middleware.CORS(s.config.CORSAllowedOrigins)(s.router)
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(itemStore store.Store) {
	handler.NewInfoHandler(itemStore, s.logger).RegisterRoutes(s.router)

	restOpts := []handler.RESTOption{handler.WithStrictValidation(s.config.StrictValidation)}

	if s.config.EventsEnabled {
		s.wsHandler = handler.NewWebSocketHandler(s.logger, s.config.CORSAllowedOrigins)
		s.wsHandler.RegisterRoutes(s.router)
		restOpts = append(restOpts, handler.WithEventPublisher(s.wsHandler))
	}

	handler.NewRESTHandler(itemStore, s.logger, restOpts...).RegisterRoutes(s.router)

	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", s.metricsHandler()).Methods(http.MethodGet)
	}
}

// setupHTTPServers configures the API server and the optional probe server.
func (s *Server) setupHTTPServers(itemStore store.Store) {
	s.httpServer = newHTTPServer(s.config.Address(), s.handler)

	if s.config.ProbePort == 0 {
		return
	}

	probeRouter := mux.NewRouter()
	handler.NewInfoHandler(itemStore, s.logger).RegisterProbeRoutes(probeRouter)
	if s.config.MetricsEnabled {
		probeRouter.Handle("/metrics", s.metricsHandler()).Methods(http.MethodGet)
	}

	s.probeServer = newHTTPServer(s.config.ProbeAddress(), probeRouter)
}

func (s *Server) metricsHandler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// Run serves until ctx is cancelled or a server fails, then shuts every
// server down within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.serve(s.httpServer, "api")
	})

	if s.probeServer != nil {
		g.Go(func() error {
			return s.serve(s.probeServer, "probe")
		})
	}

	g.Go(func() error {
		<-gCtx.Done()

		//nolint:contextcheck // shutdown must outlive the cancelled run context
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// serve runs one HTTP server; a graceful shutdown is not an error.
func (s *Server) serve(srv *http.Server, name string) error {
	s.logger.Info("starting server",
		zap.String("server", name),
		zap.String("address", srv.Addr),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.Bool("events_enabled", s.config.EventsEnabled),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server listen and serve: %w", name, err)
	}

	return nil
}

// Shutdown gracefully shuts down the servers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	// Hijacked WebSocket connections are not tracked by http.Server.
	if s.wsHandler != nil {
		s.wsHandler.CloseAllConnections()
	}

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	if s.probeServer != nil {
		if err := s.probeServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("probe server shutdown: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Handler returns the complete HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ProbeHandler returns the probe server handler, or nil when disabled.
func (s *Server) ProbeHandler() http.Handler {
	if s.probeServer == nil {
		return nil
	}
	return s.probeServer.Handler
}
