// Package preview serves the regenerated vocabulary page and its images locally.
package preview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	// DefaultBasePath mirrors the path the published site is cached under.
	DefaultBasePath = "/letzvisit/"

	// ImagesPath is where the images directory is mounted under the base
	// path. Pages must reference images relative to it.
	ImagesPath = "images"

	shutdownTimeout = 5 * time.Second
)

// PageFunc renders the current page. It is called on every page request so
// edits to the data file or images show up on reload.
type PageFunc func(ctx context.Context) ([]byte, error)

// Config holds runtime options for the preview server.
type Config struct {
	Address   string
	BasePath  string
	ImagesDir string
	Page      PageFunc
	Logger    *slog.Logger
}

// Server wraps an http.Server with the preview routes.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// New constructs the preview server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Address,
			Handler:      NewRouter(cfg),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter builds the route table: the page at {base} and {base}index.html,
// images under {base}images/ and a health check.
func NewRouter(cfg Config) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	base := normalizeBasePath(cfg.BasePath)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(requestLogger(logger))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	page := pageHandler(cfg.Page, logger)
	router.Get(base, page)
	router.Get(base+"index.html", page)
	if base != "/" {
		router.Get(strings.TrimSuffix(base, "/"), func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, base, http.StatusMovedPermanently)
		})
	}

	images := base + ImagesPath + "/"
	router.Handle(images+"*", http.StripPrefix(images, http.FileServer(http.Dir(cfg.ImagesDir))))

	return router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Preview server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down preview server")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func pageHandler(render PageFunc, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if render == nil {
			http.NotFound(w, r)
			return
		}
		body, err := render(r.Context())
		if err != nil {
			logger.Error("Failed to render page", "error", err)
			http.Error(w, "failed to render page", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(body)
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()))
		})
	}
}

// normalizeBasePath returns base with exactly one leading and one trailing slash.
func normalizeBasePath(base string) string {
	p := strings.Trim(strings.TrimSpace(base), "/")
	if p == "" {
		return "/"
	}
	return "/" + p + "/"
}
