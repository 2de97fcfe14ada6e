// Package api exposes the personalization pipeline over HTTP.
//
// Three render endpoints share one handler shape: pre-flight failures are
// rejected synchronously with a JSON message, successful batches stream
// per-guest progress as server-sent events. A health probe and a static
// file mount for locally stored artifacts round out the surface.
package api

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pawanm992002/nimantran-backend/pkg/batch"
	"github.com/pawanm992002/nimantran-backend/pkg/card"
)

// Server handles HTTP requests for the rendering pipeline.
type Server struct {
	runner       *batch.Runner
	logger       *log.Logger
	chunkSize    int
	guestTimeout time.Duration
	filesDir     string
}

// Option configures a Server.
type Option func(*Server)

// WithChunkSize overrides the video fan-out window size.
func WithChunkSize(n int) Option {
	return func(s *Server) { s.chunkSize = n }
}

// WithGuestTimeout overrides the per-guest render deadline.
func WithGuestTimeout(d time.Duration) Option {
	return func(s *Server) { s.guestTimeout = d }
}

// WithFilesDir serves the given directory under /files/. Used with the
// filesystem artifact store so returned links resolve.
func WithFilesDir(dir string) Option {
	return func(s *Server) { s.filesDir = dir }
}

// New creates a server. A nil logger discards logs.
func New(runner *batch.Runner, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{runner: runner, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/imageEdit", s.handleEdit(card.MediumImage))
		r.Post("/pdfEdit", s.handleEdit(card.MediumPDF))
		r.Post("/videoEdit", s.handleEdit(card.MediumVideo))
	})

	if s.filesDir != "" {
		fs := http.StripPrefix("/files/", http.FileServer(http.Dir(s.filesDir)))
		r.Handle("/files/*", fs)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// logRequests logs one line per request with status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
