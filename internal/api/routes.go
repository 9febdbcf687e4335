package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	limiter := NewRateLimiter(deps.Config.RateLimitPerHour, time.Hour)
	limiter.now = deps.Now

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Turbo Catan API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, deps.Log))

	// Generation and image endpoints share one per-IP budget.
	r.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware(limiter))
		r.Get("/", handleIndex(logger, deps))
		r.Get("/api/v1/board", handleBoard(logger, deps))
		r.Get("/api/v1/board.png", handleBoardPNG(logger, deps))
		r.Get("/api/v1/board/qr", handleBoardQR(deps))
	})

	r.Get("/api/v1/stats", handleStats(logger, deps))
}
