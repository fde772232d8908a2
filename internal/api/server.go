// Package api serves the catalog and favorites over a small JSON REST API.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vadimtrunov/PopularMovies/internal/catalog"
	"github.com/vadimtrunov/PopularMovies/internal/config"
	"github.com/vadimtrunov/PopularMovies/internal/favorites"
)

const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	// RateLimit is requests per minute per client IP on /api; 0 disables it.
	RateLimit int
	Logger    *slog.Logger
}

// Server is the REST facade over the list and detail controllers.
type Server struct {
	fetcher catalog.Fetcher
	store   favorites.Store
	details *catalog.DetailController
	logger  *slog.Logger
	router  chi.Router
}

// NewServer builds the router. List requests each get their own
// ListController; the detail controller and its replay cache are shared.
func NewServer(fetcher catalog.Fetcher, store favorites.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		fetcher: fetcher,
		store:   store,
		details: catalog.NewDetailController(fetcher, store, logger),
		logger:  logger,
	}
	s.router = s.routes(opts.RateLimit)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes(rateLimit int) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if rateLimit > 0 {
			r.Use(rateLimiter(rateLimit, time.Minute))
		}
		r.Get("/movies", s.handleList)
		r.Get("/movies/{id}", s.handleDetail)
		r.Get("/search", s.handleSearch)
		r.Get("/favorites", s.handleFavorites)
		r.Get("/favorites/{id}", s.handleFavorite)
		r.Put("/favorites/{id}", s.handleAddFavorite)
		r.Delete("/favorites/{id}", s.handleRemoveFavorite)
	})
	return r
}

// rateLimiter limits requests per client IP with a sliding window.
func rateLimiter(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests, try again later")
		}),
	)
}

// requestLogger attaches a request-scoped logger to the context and logs
// each completed request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := s.logger.With(slog.String("request_id", chimw.GetReqID(r.Context())))
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(config.ContextWithLogger(r.Context(), logger)))

		logger.Debug("request served",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
