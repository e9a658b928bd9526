// Package server exposes the layout engine over HTTP.
//
// Every request carries a complete graph document, so the server keeps no
// per-client state beyond a cache of rendered output.
//
//	POST /v1/format      format the subgraph around one node
//	POST /v1/format-all  format every subgraph into columns
//	POST /v1/render      format, then return an SVG, PNG or DOT picture
//	GET  /healthz        liveness and build information
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/nodeformat/pkg/cache"
	"github.com/matzehuels/nodeformat/pkg/config"
	"github.com/matzehuels/nodeformat/pkg/observability"
)

// maxBody bounds request documents.
const maxBody = 8 << 20

// Server handles API requests with a base configuration that requests can
// override field by field.
type Server struct {
	cfg      config.Config
	logger   *log.Logger
	cache    cache.Cache
	cacheTTL time.Duration
	router   chi.Router
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithCache stores rendered output in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Server) { s.cache, s.cacheTTL = c, ttl }
}

// New creates a server using cfg as the base configuration.
func New(cfg config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		logger: log.Default(),
		cache:  cache.NullCache{},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/format", s.handleFormat)
		r.Post("/format-all", s.handleFormatAll)
		r.Post("/render", s.handleRender)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then drains open requests
// for up to five seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// observe reports every request to the HTTP hooks and the logger.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, d)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status,
			"duration", d, "id", middleware.GetReqID(r.Context()))
	})
}
