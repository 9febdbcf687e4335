// Package api serves generated boards over HTTP.
// Every endpoint is a read-only GET; boards are reproducible from their seed
// and only a summary of each generation is logged.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/talgya/turbo-catan/internal/config"
	"github.com/talgya/turbo-catan/internal/entropy"
	"github.com/talgya/turbo-catan/internal/persistence"
	"github.com/talgya/turbo-catan/internal/render"
)

// GenerationLog is the storage the API needs. *persistence.DB satisfies it.
type GenerationLog interface {
	RecordGeneration(ctx context.Context, g persistence.Generation) (string, error)
	RecentGenerations(ctx context.Context, limit int) ([]persistence.Generation, error)
	Summarize(ctx context.Context) (persistence.Summary, error)
	Check(ctx context.Context) error
}

// Deps bundles what the handlers need.
type Deps struct {
	Config   *config.Config
	Log      GenerationLog
	Entropy  *entropy.Client // nil falls back to crypto/rand seeds
	Renderer *render.Renderer
	Now      func() time.Time
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// New builds the router and wraps it in an http.Server bound to cfg.HTTPAddr.
func New(logger *slog.Logger, deps Deps) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              deps.Config.HTTPAddr,
			Handler:           NewRouter(logger, deps),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter returns the fully wired handler. Tests drive it with httptest.
func NewRouter(logger *slog.Logger, deps Deps) http.Handler {
	if deps.Renderer == nil {
		deps.Renderer = render.NewRenderer(render.DefaultOptions())
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(deps.Config.CORSOrigins))

	addRoutes(r, logger, deps)
	return r
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
