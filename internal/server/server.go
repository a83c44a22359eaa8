// Package server exposes the resolver and the local store over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	coreErrors "github.com/falkben/media-organizer/pkg/core/errors"
	"github.com/falkben/media-organizer/pkg/core/models"
	"github.com/falkben/media-organizer/pkg/resolver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

const defaultListLimit = 100

// Resolver resolves one file path.
type Resolver interface {
	Resolve(ctx context.Context, path string) (*resolver.Resolution, error)
}

// Store is the read side of the metadata store.
type Store interface {
	FindMovie(ctx context.Context, title, year string) (*models.Movie, error)
	GetMovie(ctx context.Context, id uint) (*models.Movie, error)
	ListMovies(ctx context.Context, limit int) ([]models.Movie, error)
	Ping(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	// RequestTimeout bounds each request, including the provider call of
	// /resolve. Zero disables the limit.
	RequestTimeout time.Duration
	Logger         *log.Logger
}

// Server routes HTTP requests to the resolver and store.
type Server struct {
	router   *chi.Mux
	resolver Resolver
	store    Store
	logger   *log.Logger
}

// New creates a Server with its routes mounted.
func New(r Resolver, st Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	s := &Server{
		router:   chi.NewRouter(),
		resolver: r,
		store:    st,
		logger:   opts.Logger,
	}
	s.setupRoutes(opts.RequestTimeout)
	return s
}

func (s *Server) setupRoutes(timeout time.Duration) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	if timeout > 0 {
		s.router.Use(middleware.Timeout(timeout))
	}

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/resolve", s.handleResolve)
	s.router.Get("/movies", s.handleMovies)
	s.router.Get("/movies/{id}", s.handleMovie)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "missing path parameter", nil)
		return
	}

	res, err := s.resolver.Resolve(r.Context(), path)
	if err != nil {
		s.writeFailure(w, r, err, map[string]string{"path": path})
		return
	}
	if !res.Found() {
		s.writeError(w, http.StatusNotFound, "not found", map[string]string{"path": path})
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// handleMovies looks up one movie by title (and year) or lists the store.
func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := q.Get("title")
	if title == "" {
		limit := defaultListLimit
		if l := q.Get("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n < 0 {
				s.writeError(w, http.StatusBadRequest, "invalid limit", nil)
				return
			}
			limit = n
		}
		movies, err := s.store.ListMovies(r.Context(), limit)
		if err != nil {
			s.writeFailure(w, r, err, nil)
			return
		}
		s.writeJSON(w, http.StatusOK, movies)
		return
	}

	movie, err := s.store.FindMovie(r.Context(), title, q.Get("year"))
	if err != nil {
		s.writeFailure(w, r, err, map[string]string{"title": title})
		return
	}
	s.writeJSON(w, http.StatusOK, movie)
}

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		s.writeError(w, http.StatusBadRequest, "invalid movie id", nil)
		return
	}
	movie, err := s.store.GetMovie(r.Context(), uint(id))
	if err != nil {
		s.writeFailure(w, r, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, movie)
}

// writeFailure maps the error taxonomy onto status codes.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error, extra map[string]string) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, coreErrors.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, coreErrors.ErrAmbiguousResult):
		status, msg = http.StatusConflict, "ambiguous title"
	case errors.Is(err, coreErrors.ErrProviderUnavailable), errors.Is(err, coreErrors.ErrInvalidRecord):
		status, msg = http.StatusBadGateway, "metadata provider failure"
	case errors.Is(err, coreErrors.ErrLockTimeout):
		status, msg = http.StatusServiceUnavailable, "busy, try again"
	}

	entry := s.logger.WithError(err).WithFields(log.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"status":     status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request failed")
	}
	s.writeError(w, status, msg, extra)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, extra map[string]string) {
	body := map[string]string{"error": msg}
	for k, v := range extra {
		body[k] = v
	}
	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
		}).Debug("HTTP request")
	})
}
