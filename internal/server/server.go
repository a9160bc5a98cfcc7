// Package server exposes the reconciliation pipeline over HTTP for the
// mobile shortcut and dashboard clients.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/gigsight/trips-cli/internal/pipeline"
	"github.com/gigsight/trips-cli/internal/store"
	"github.com/gigsight/trips-cli/pkg/vision"
)

// Server wires the pipeline and store into an HTTP handler.
type Server struct {
	pipeline *pipeline.Pipeline
	store    store.Store
	vision   vision.Client // nil when no vision key is configured
	origins  []string
}

// New builds a Server. vision may be nil; image uploads then return 503 and
// callers must send pre-transcribed OCR payloads instead.
func New(p *pipeline.Pipeline, st store.Store, vc vision.Client, allowedOrigins []string) *Server {
	return &Server{pipeline: p, store: st, vision: vc, origins: allowedOrigins}
}

// Routes returns the HTTP handler with all routes and middleware attached.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/webhook/screenshot", s.handleScreenshot)

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.handleListTrips)
		r.Get("/{id}", s.handleGetTrip)
		r.Get("/{id}/screenshots", s.handleListScreenshots)
		r.Post("/{id}/corrections", s.handleCorrections)
		r.Post("/{id}/recompute", s.handleRecompute)
	})

	r.Post("/validate/week", s.handleValidateWeek)
	r.Get("/reports/weekly", s.handleWeeklyReports)

	return r
}

// requestLogger logs each request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
