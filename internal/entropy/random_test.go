package entropy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNilClientFallsBack(t *testing.T) {
	var c *Client
	if c.Enabled() {
		t.Fatal("nil client should not be enabled")
	}
	for range 20 {
		if s := c.Seed(); s < 0 {
			t.Fatalf("seed %d is negative", s)
		}
	}
	if NewClient("") != nil {
		t.Error("empty key should yield a nil client")
	}
}

func TestSeedFromPool(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Method string `json:"method"`
			Params struct {
				APIKey string `json:"apiKey"`
				N      int    `json:"n"`
			} `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Method != "generateIntegers" || req.Params.APIKey != "k" {
			t.Errorf("unexpected request %+v", req)
		}
		data := make([]int64, req.Params.N)
		for i := range data {
			data[i] = int64(i + 1)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"random": map[string]any{"data": data}},
		})
	}))
	defer srv.Close()

	c := NewClient("k")
	c.endpoint = srv.URL

	for want := int64(1); want <= 5; want++ {
		if got := c.Seed(); got != want {
			t.Errorf("seed = %d, want %d", got, want)
		}
	}
	if calls != 1 {
		t.Errorf("random.org called %d times, want 1", calls)
	}
}

func TestSeedAPIErrorFallsBack(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "quota"}})
	}))
	defer srv.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClient("k")
	c.endpoint = srv.URL
	c.now = func() time.Time { return now }

	for range 3 {
		if s := c.Seed(); s < 0 {
			t.Fatalf("seed %d is negative", s)
		}
	}
	if len(c.pool) != 0 {
		t.Errorf("pool has %d entries after an API error", len(c.pool))
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("random.org called %d times within the backoff, want 1", n)
	}

	now = now.Add(failBackoff)
	c.Seed()
	if n := calls.Load(); n != 2 {
		t.Errorf("random.org called %d times after the backoff, want 2", n)
	}
}

func TestSeedDoesNotWaitOnRefill(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) > 1 {
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "quota"}})
			return
		}
		close(started)
		<-release
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"random": map[string]any{"data": []int64{7, 8, 9}}},
		})
	}))
	defer srv.Close()

	c := NewClient("k")
	c.endpoint = srv.URL

	first := make(chan int64)
	go func() { first <- c.Seed() }()
	<-started

	// A refill is in flight; this call must not block behind it.
	second := make(chan int64)
	go func() { second <- c.Seed() }()
	select {
	case s := <-second:
		if s < 0 {
			t.Errorf("seed %d is negative", s)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Seed blocked behind an in-flight refill")
	}

	close(release)
	if got := <-first; got != 7 {
		t.Errorf("refilling caller got %d, want 7", got)
	}
	if got := c.Seed(); got != 8 {
		t.Errorf("next seed = %d, want 8", got)
	}
}
