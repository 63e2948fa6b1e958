package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"file-drop/internal/transfer"
)

// BuildInfo is reported by /health and the fd_build_info metric.
type BuildInfo struct {
	Version string
	Commit  string
}

type Config struct {
	Addr    string // e.g. ":8080"
	Service *transfer.Service
	Checks  []HealthCheck

	// MaxUploadBytes caps upload bodies; 0 disables the cap.
	MaxUploadBytes int64
	// TrustProxy takes the client address from X-Real-IP / X-Forwarded-For.
	TrustProxy bool
	// RateLimit is upload requests per second per client; 0 disables.
	RateLimit float64
	RateBurst int

	// Metrics is optional; nil disables /metrics.
	Metrics *Metrics
	Build   BuildInfo
	Logger  *slog.Logger
}

type Server struct {
	svc     *transfer.Service
	checks  []HealthCheck
	build   BuildInfo
	log     *slog.Logger
	metrics *Metrics

	httpServer *http.Server
}

func New(cfg Config) *Server {
	s := &Server{
		svc:     cfg.Service,
		checks:  cfg.Checks,
		build:   cfg.Build,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	r := chi.NewRouter()

	// RealIP rewrites RemoteAddr, so it must run before anything reads it.
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeadersMiddleware)

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	r.Get("/fd/{id}", s.handleDownload)
	r.Get("/fd/{id}/{name}", s.handleDownload)
	r.Get("/fd/*", s.handleBadDownloadPath)

	r.Group(func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(newRateLimiter(cfg.RateLimit, cfg.RateBurst).middleware)
		}
		r.Use(maxBodyMiddleware(cfg.MaxUploadBytes))

		r.Post("/raw", s.handleRawUpload)
		r.Post("/", s.handleFormUpload)
	})

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/live", s.handleLive)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
