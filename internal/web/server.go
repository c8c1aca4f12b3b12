package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/housecheck/internal/domain"
	"github.com/vbonduro/housecheck/internal/inspection"
)

// templateLoader is satisfied by checklist.Loader.
type templateLoader interface {
	Load(ctx context.Context, checkType string) (*domain.Template, bool)
}

type Server struct {
	manager   *inspection.Manager
	templates templateLoader
	jwtSecret []byte
	jwtIssuer string
	metrics   http.Handler
	mux       *http.ServeMux
	logger    *slog.Logger
}

type Options struct {
	JWTSecret []byte
	JWTIssuer string
	// Metrics serves GET /metrics when non-nil.
	Metrics http.Handler
}

func NewServer(mgr *inspection.Manager, templates templateLoader, logger *slog.Logger, opts Options) *Server {
	s := &Server{
		manager:   mgr,
		templates: templates,
		jwtSecret: opts.JWTSecret,
		jwtIssuer: opts.JWTIssuer,
		metrics:   opts.Metrics,
		mux:       http.NewServeMux(),
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}

	s.mux.Handle("GET /templates/{checkType}", s.authenticated(s.handleGetTemplate))

	s.mux.Handle("POST /sessions", s.authenticated(s.handleStartSession))
	s.mux.Handle("GET /properties/{propertyID}/sessions/open", s.authenticated(s.handleFindOpenSession))
	s.mux.Handle("GET /sessions/{id}", s.authenticated(s.handleResumeSession))
	s.mux.Handle("POST /sessions/{id}/items/{itemID}/toggle", s.authenticated(s.handleToggleItem))
	s.mux.Handle("PUT /sessions/{id}/items/{itemID}/notes", s.authenticated(s.handleSetNotes))
	s.mux.Handle("POST /sessions/{id}/items/{itemID}/photos", s.authenticated(s.handleUploadPhoto))
	s.mux.Handle("POST /sessions/{id}/items/{itemID}/photo-refs", s.authenticated(s.handleAttachPhotoRef))
	s.mux.Handle("GET /sessions/{id}/photos/{key...}", s.authenticated(s.handleGetPhoto))
	s.mux.Handle("POST /sessions/{id}/complete", s.authenticated(s.handleCompleteSession))
	s.mux.Handle("GET /sessions/{id}/progress", s.authenticated(s.handleGetProgress))
	s.mux.Handle("POST /sessions/{id}/save", s.authenticated(s.handleSaveSession))
	s.mux.Handle("POST /sessions/{id}/detach", s.authenticated(s.handleDetachSession))
	s.mux.Handle("GET /sessions/{id}/activity", s.authenticated(s.handleListActivity))
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
