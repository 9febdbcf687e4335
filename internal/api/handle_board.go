package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/talgya/turbo-catan/internal/board"
	"github.com/talgya/turbo-catan/internal/persistence"
)

// BoardResponse is returned by GET /api/v1/board.
type BoardResponse struct {
	ID       string       `json:"id"`
	Seed     int64        `json:"seed"`
	Gold     bool         `json:"gold"`
	ShareURL string       `json:"share_url"`
	Board    *board.Board `json:"board"`
}

// BoardQuery documents the query parameters shared by the board endpoints.
type BoardQuery struct {
	Players float64 `query:"players" required:"true" description:"Number of players; fractional counts are accepted."`
	Bonus   *bool   `query:"bonus" description:"Use the bonus roll table (default true)."`
	Gold    bool    `query:"gold" description:"Add gold as a sixth resource."`
	Seed    *int64  `query:"seed" description:"Seed to reproduce a board; drawn at random when omitted."`
}

type boardRequest struct {
	Players float64
	Bonus   bool
	Gold    bool
	Seed    int64
}

var errBadRequest = errors.New("bad request")

// parseBoardRequest reads the board query. A missing seed is drawn from the
// entropy source so that every response can be reproduced.
func parseBoardRequest(r *http.Request, deps Deps) (boardRequest, error) {
	q := r.URL.Query()
	req := boardRequest{Bonus: true}

	raw := strings.TrimSpace(q.Get("players"))
	if raw == "" {
		return req, fmt.Errorf("%w: players is required", errBadRequest)
	}
	players, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(players) || math.IsInf(players, 0) {
		return req, fmt.Errorf("%w: players must be a number", errBadRequest)
	}
	if players <= 0 || players > deps.Config.MaxPlayers {
		return req, fmt.Errorf("%w: players must be in (0, %v]", errBadRequest, deps.Config.MaxPlayers)
	}
	req.Players = players

	if v := q.Get("bonus"); v != "" {
		if req.Bonus, err = strconv.ParseBool(v); err != nil {
			return req, fmt.Errorf("%w: bonus must be a boolean", errBadRequest)
		}
	}
	if v := q.Get("gold"); v != "" {
		if req.Gold, err = strconv.ParseBool(v); err != nil {
			return req, fmt.Errorf("%w: gold must be a boolean", errBadRequest)
		}
	}

	if v := q.Get("seed"); v != "" {
		if req.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return req, fmt.Errorf("%w: seed must be an integer", errBadRequest)
		}
	} else {
		req.Seed = deps.Entropy.Seed()
	}
	return req, nil
}

// shareURL is the page that reproduces req.
func shareURL(base string, req boardRequest) string {
	v := url.Values{}
	v.Set("players", strconv.FormatFloat(req.Players, 'f', -1, 64))
	v.Set("seed", strconv.FormatInt(req.Seed, 10))
	v.Set("bonus", strconv.FormatBool(req.Bonus))
	if req.Gold {
		v.Set("gold", "true")
	}
	return strings.TrimRight(base, "/") + "/?" + v.Encode()
}

// generate builds the board for req and appends it to the generation log.
func generate(ctx context.Context, deps Deps, req boardRequest) (*board.Board, string, error) {
	cfg := board.DefaultGenConfig(req.Players, req.Bonus)
	if req.Gold {
		cfg = cfg.WithGold()
	}
	gen, err := board.NewGenerator(cfg, rand.New(rand.NewSource(req.Seed)))
	if err != nil {
		return nil, "", err
	}
	b, err := gen.Generate()
	if err != nil {
		return nil, "", err
	}

	id, err := deps.Log.RecordGeneration(ctx, persistence.Generation{
		Seed:              req.Seed,
		Players:           req.Players,
		Bonus:             req.Bonus,
		Gold:              req.Gold,
		Tiles:             len(b.Tiles),
		BorderTiles:       len(b.Border),
		Rings:             b.Rings,
		BalanceAttempts:   b.Stats.BalanceAttempts,
		PlacementAttempts: b.Stats.PlacementAttempts,
		DurationMicros:    b.Stats.Elapsed.Microseconds(),
		CreatedAtMillis:   deps.Now().UnixMilli(),
	})
	if err != nil {
		return nil, "", fmt.Errorf("record generation: %w", err)
	}
	return b, id, nil
}

// statusFor maps generation errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, board.ErrConfiguration),
		errors.Is(err, board.ErrInvalidCoordinate):
		return http.StatusBadRequest
	case errors.Is(err, board.ErrBalanceUnsatisfiable),
		errors.Is(err, board.ErrPlacementUnsatisfiable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// failBoard writes err with its mapped status; internal errors are logged
// and not echoed.
func failBoard(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("board generation failed", "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	if status == http.StatusUnprocessableEntity {
		logger.Warn("board unsatisfiable", "query", r.URL.RawQuery, "error", err)
	}
	writeError(w, status, err.Error())
}

func handleBoard(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseBoardRequest(r, deps)
		if err != nil {
			failBoard(logger, w, r, err)
			return
		}
		b, id, err := generate(r.Context(), deps, req)
		if err != nil {
			failBoard(logger, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, BoardResponse{
			ID:       id,
			Seed:     req.Seed,
			Gold:     req.Gold,
			ShareURL: shareURL(deps.Config.PublicURL, req),
			Board:    b,
		})
	}
}

func handleBoardPNG(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseBoardRequest(r, deps)
		if err != nil {
			failBoard(logger, w, r, err)
			return
		}
		b, id, err := generate(r.Context(), deps, req)
		if err != nil {
			failBoard(logger, w, r, err)
			return
		}

		var buf bytes.Buffer
		if err := deps.Renderer.EncodePNG(&buf, b.All()); err != nil {
			failBoard(logger, w, r, fmt.Errorf("render: %w", err))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("X-Board-Id", id)
		w.Header().Set("X-Board-Seed", strconv.FormatInt(req.Seed, 10))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}
