// Package web provides the HTTP API and web UI for review sentiment analysis.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/reviewsense/internal/config"
	"github.com/JonMunkholm/reviewsense/internal/core"
	"github.com/JonMunkholm/reviewsense/internal/web/middleware"
)

// Server is the HTTP server for the analysis API and UI.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	schemas  *requestSchemas
	limiters []*middleware.RateLimiter
}

// NewServer creates a Server with middleware and routes configured.
func NewServer(service *core.Service, cfg *config.Config) (*Server, error) {
	schemas, err := compileRequestSchemas()
	if err != nil {
		return nil, err
	}

	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
		schemas: schemas,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.rateLimit(s.cfg.Rate.RequestsPerMinute))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)

	s.router.Route("/api", func(r chi.Router) {
		// Probes stay open so load balancers need no key.
		r.Get("/health", s.handleHealth)
		r.Get("/model-info", s.handleModelInfo)

		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(s.cfg.Security))

			r.Post("/classify", s.handleClassify)
			r.Post("/classify-batch", s.handleClassifyBatch)

			r.With(s.uploadRateLimit()).Post("/upload-file", s.handleUploadFile)

			r.Get("/analyses", s.handleListAnalyses)
			r.Get("/analyses/{id}", s.handleGetAnalysis)
			r.Get("/analyses/{id}/export", s.handleExportAnalysis)

			r.Get("/limiter", s.handleLimiterStatus)
		})
	})
}

func (s *Server) rateLimit(perMinute int) func(http.Handler) http.Handler {
	rl := middleware.NewRateLimiter(perMinute, time.Minute)
	s.limiters = append(s.limiters, rl)
	return rl.Handler
}

func (s *Server) uploadRateLimit() func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.rateLimit(s.cfg.Rate.UploadLimit)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.Stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// The index page carries its script and styles inline.
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
