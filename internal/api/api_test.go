package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talgya/turbo-catan/internal/board"
	"github.com/talgya/turbo-catan/internal/config"
	"github.com/talgya/turbo-catan/internal/persistence"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func testConfig() *config.Config {
	return &config.Config{
		HTTPAddr:         ":0",
		MaxPlayers:       12,
		RateLimitPerHour: 0,
		PublicURL:        "http://boards.test",
		CORSOrigins:      []string{"http://app.test"},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) (http.Handler, *persistence.DB) {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "boards.db"))
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewRouter(slog.Default(), Deps{Config: cfg, Log: db}), db
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBoardEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, testConfig())

	rec := get(h, "/api/v1/board?players=4&seed=42")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp BoardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Seed != 42 || resp.ID == "" {
		t.Errorf("seed = %d, id = %q", resp.Seed, resp.ID)
	}
	if len(resp.Board.Tiles) != 28 {
		t.Errorf("tiles = %d, want 28", len(resp.Board.Tiles))
	}
	if !resp.Board.Bonus {
		t.Error("bonus should default to true")
	}
	if !strings.Contains(resp.ShareURL, "seed=42") || !strings.HasPrefix(resp.ShareURL, "http://boards.test/?") {
		t.Errorf("share url = %q", resp.ShareURL)
	}

	again := get(h, "/api/v1/board?players=4&seed=42")
	var second BoardResponse
	if err := json.Unmarshal(again.Body.Bytes(), &second); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	for i := range resp.Board.Tiles {
		a, b := resp.Board.Tiles[i], second.Board.Tiles[i]
		if a.Category != b.Category || a.Roll != b.Roll || *a.Coord != *b.Coord {
			t.Fatalf("tile %d differs between runs with the same seed: %v vs %v", i, a, b)
		}
	}
}

func TestBoardGold(t *testing.T) {
	h, _ := newTestRouter(t, testConfig())

	rec := get(h, "/api/v1/board?players=5&seed=7&gold=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp BoardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if !resp.Gold {
		t.Error("gold flag not echoed")
	}
	if got := board.CategoryCounts(resp.Board.Tiles)[board.CategoryGold]; got != 5 {
		t.Errorf("gold tiles = %d, want 5", got)
	}
}

func TestBoardBadRequest(t *testing.T) {
	h, _ := newTestRouter(t, testConfig())

	tests := []struct {
		name  string
		query string
	}{
		{"missing players", ""},
		{"not a number", "players=four"},
		{"zero", "players=0"},
		{"negative", "players=-2"},
		{"nan", "players=NaN"},
		{"infinite", "players=Inf"},
		{"over max", "players=13"},
		{"bad bonus", "players=4&bonus=maybe"},
		{"bad gold", "players=4&gold=2x"},
		{"bad seed", "players=4&seed=abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(h, "/api/v1/board?"+tt.query)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Errorf("error body = %q (%v)", rec.Body, err)
			}
		})
	}
}

func TestBoardPNG(t *testing.T) {
	h, _ := newTestRouter(t, testConfig())

	rec := get(h, "/api/v1/board.png?players=3&seed=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content-type = %q", ct)
	}
	if rec.Header().Get("X-Board-Seed") != "5" || rec.Header().Get("X-Board-Id") == "" {
		t.Errorf("headers = %v", rec.Header())
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), pngMagic) {
		t.Error("body is not a PNG")
	}
}

func TestBoardQR(t *testing.T) {
	h, db := newTestRouter(t, testConfig())

	rec := get(h, "/api/v1/board/qr?players=4&seed=9")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), pngMagic) {
		t.Error("body is not a PNG")
	}

	// The share code does not generate a board.
	s, err := db.Summarize(t.Context())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Count != 0 {
		t.Errorf("generations = %d, want 0", s.Count)
	}

	if rec := get(h, "/api/v1/board/qr"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing players: status = %d, want 400", rec.Code)
	}
}

func TestIndex(t *testing.T) {
	h, _ := newTestRouter(t, testConfig())

	rec := get(h, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<form") || strings.Contains(body, "data:image/png") {
		t.Error("empty index should show only the form")
	}

	rec = get(h, "/?players=4&seed=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "data:image/png;base64,") {
		t.Error("index should embed the rendered board")
	}

	rec = get(h, "/?players=zero")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad players: status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "players must be a number") {
		t.Error("error should be shown on the page")
	}
}

func TestStats(t *testing.T) {
	h, _ := newTestRouter(t, testConfig())

	for _, seed := range []int{1, 2} {
		if rec := get(h, fmt.Sprintf("/api/v1/board?players=4&seed=%d", seed)); rec.Code != http.StatusOK {
			t.Fatalf("generate: status = %d", rec.Code)
		}
	}

	rec := get(h, "/api/v1/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Generations != 2 || len(resp.Recent) != 2 {
		t.Errorf("generations = %d, recent = %d", resp.Generations, len(resp.Recent))
	}
	if resp.AvgBalanceAttempts < 1 {
		t.Errorf("avg balance attempts = %v", resp.AvgBalanceAttempts)
	}
	if resp.Recent[0].Age == "" {
		t.Error("age not humanised")
	}
}

func TestRateLimitedEndpoints(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerHour = 2
	h, _ := newTestRouter(t, cfg)

	for i := range 2 {
		if rec := get(h, "/api/v1/board?players=3&seed=11"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	rec := get(h, "/api/v1/board?players=3&seed=11")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	// Share codes draw from the same budget.
	if rec := get(h, "/api/v1/board/qr?players=3&seed=11"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("qr: status = %d, want 429", rec.Code)
	}

	// Stats are not limited.
	if rec := get(h, "/api/v1/stats"); rec.Code != http.StatusOK {
		t.Errorf("stats: status = %d", rec.Code)
	}
}

func TestQRCountsAgainstRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerHour = 1
	h, _ := newTestRouter(t, cfg)

	if rec := get(h, "/api/v1/board/qr?players=4&seed=9"); rec.Code != http.StatusOK {
		t.Fatalf("qr: status = %d", rec.Code)
	}
	if rec := get(h, "/api/v1/board/qr?players=4&seed=9"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second qr: status = %d, want 429", rec.Code)
	}
	if rec := get(h, "/api/v1/board?players=4&seed=9"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("board after qr: status = %d, want 429", rec.Code)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("a") {
		t.Fatal("second request should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other addresses have their own bucket")
	}
	if got := rl.RetryAfter("a"); got != 61 {
		t.Errorf("retry after = %d, want 61", got)
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("window should have reset")
	}

	now = now.Add(5 * time.Minute)
	rl.Allow("c")
	if _, ok := rl.buckets["b"]; ok {
		t.Error("stale bucket should be swept")
	}
}

func TestClientIP(t *testing.T) {
	tests := map[string]string{
		"192.0.2.1:1234": "192.0.2.1",
		"[::1]:80":       "::1",
		"2001:db8::1":    "2001:db8::1",
		"203.0.113.7":    "203.0.113.7",
	}
	for in, want := range tests {
		if got := clientIP(in); got != want {
			t.Errorf("clientIP(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHealth(t *testing.T) {
	h, db := newTestRouter(t, testConfig())

	if rec := get(h, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	db.Close()
	rec := get(h, "/healthz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if body["sqlite"].Status != "error" {
		t.Errorf("sqlite = %q, want error", body["sqlite"].Status)
	}
}

func TestCORS(t *testing.T) {
	h, _ := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/board", nil)
	req.Header.Set("Origin", "http://app.test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow origin %q", got)
	}
}

func TestHandleOpenAPI(t *testing.T) {
	rec := httptest.NewRecorder()
	handleOpenAPI()(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, path := range []string{`"/healthz"`, `"/api/v1/board"`, `"/api/v1/board.png"`, `"/api/v1/stats"`} {
		if !strings.Contains(body, path) {
			t.Errorf("body missing %s", path)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: players", errBadRequest), http.StatusBadRequest},
		{fmt.Errorf("%w: x", board.ErrConfiguration), http.StatusBadRequest},
		{fmt.Errorf("%w: %w", board.ErrBalanceUnsatisfiable, board.ErrBoundExceeded), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: y", board.ErrPlacementUnsatisfiable), http.StatusUnprocessableEntity},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
