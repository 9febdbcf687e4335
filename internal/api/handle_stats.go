package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
)

const recentGenerations = 10

// StatsResponse is returned by GET /api/v1/stats.
type StatsResponse struct {
	Generations          int64              `json:"generations"`
	GenerationsText      string             `json:"generations_text"`
	AvgBalanceAttempts   float64            `json:"avg_balance_attempts"`
	MaxBalanceAttempts   int64              `json:"max_balance_attempts"`
	AvgPlacementAttempts float64            `json:"avg_placement_attempts"`
	AvgDuration          string             `json:"avg_duration"`
	Recent               []RecentGeneration `json:"recent"`
}

// RecentGeneration is one logged generation in a stats response.
type RecentGeneration struct {
	ID              string  `json:"id"`
	Seed            int64   `json:"seed"`
	Players         float64 `json:"players"`
	Bonus           bool    `json:"bonus"`
	Gold            bool    `json:"gold"`
	Tiles           int     `json:"tiles"`
	BalanceAttempts int     `json:"balance_attempts"`
	Age             string  `json:"age"`
}

func handleStats(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Log.Summarize(r.Context())
		if err != nil {
			logger.Error("summarize generations", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		gens, err := deps.Log.RecentGenerations(r.Context(), recentGenerations)
		if err != nil {
			logger.Error("list generations", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		now := deps.Now()
		resp := StatsResponse{
			Generations:          s.Count,
			GenerationsText:      humanize.Comma(s.Count),
			AvgBalanceAttempts:   s.AvgBalanceAttempts,
			MaxBalanceAttempts:   s.MaxBalanceAttempts,
			AvgPlacementAttempts: s.AvgPlacementAttempts,
			AvgDuration:          (time.Duration(s.AvgDurationMicros) * time.Microsecond).String(),
			Recent:               make([]RecentGeneration, 0, len(gens)),
		}
		for _, g := range gens {
			resp.Recent = append(resp.Recent, RecentGeneration{
				ID:              g.ID,
				Seed:            g.Seed,
				Players:         g.Players,
				Bonus:           g.Bonus,
				Gold:            g.Gold,
				Tiles:           g.Tiles,
				BalanceAttempts: g.BalanceAttempts,
				Age:             humanize.RelTime(g.CreatedAt(), now, "ago", "from now"),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HealthResponse maps each dependency to its status.
type HealthResponse map[string]HealthCheck

type HealthCheck struct {
	Status string `json:"status"`
}

func handleHealth(logger *slog.Logger, log GenerationLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := HealthResponse{"sqlite": {Status: "ok"}}
		status := http.StatusOK

		if err := log.Check(ctx); err != nil {
			logger.Error("health check failed", "name", "sqlite", "error", err)
			checks["sqlite"] = HealthCheck{Status: "error"}
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, checks)
	}
}
