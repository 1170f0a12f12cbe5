// Package server exposes the rules engine over HTTP as JSON. Every explorer
// event is available as a stateless transition: clients send their State
// and get back the next State plus the Effect to apply after rendering.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/coolbeans/mtgrules/pkg/rules"
)

// Provider supplies the active rules Store. *rules.Registry satisfies it, so
// a reloaded document is picked up by the next request.
type Provider interface {
	Store() *rules.Store
}

// Server routes API requests to the rules engine.
type Server struct {
	provider Provider
	logger   *zap.Logger
	router   *chi.Mux
}

// New creates a Server. A nil logger disables logging.
func New(provider Provider, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{provider: provider, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/versions", s.handleVersions)
		r.Route("/versions/{version}", func(r chi.Router) {
			r.Get("/sections", s.handleSections)
			r.Get("/subsections/{subsection}", s.handleSubsection)
			r.Get("/rules/{rule}", s.handleLocate)
			r.Get("/search", s.handleSearch)
			r.Get("/index", s.handleIndex)
		})
		r.Post("/refs", s.handleRefs)
		r.Get("/glossary", s.handleGlossary)
		r.Get("/glossary/{term}", s.handleGlossaryTerm)
		r.Get("/history", s.handleHistory)
		r.Post("/state/{event}", s.handleState)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, fmt.Errorf("no route for %s %s", r.Method, r.URL.Path))
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// version resolves the {version} URL parameter, writing the error response
// itself when it fails.
func (s *Server) version(w http.ResponseWriter, r *http.Request) (*rules.Version, bool) {
	key, err := rules.ParseVersionKey(chi.URLParam(r, "version"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	version, err := s.provider.Store().GetVersion(key)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return version, true
}
