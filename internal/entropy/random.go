// Package entropy provides board seeds from random.org when configured.
// Falls back to crypto/rand when the API is unavailable.
package entropy

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	defaultEndpoint = "https://api.random.org/json-rpc/4/invoke"
	poolLow         = 10
	batchSize       = 100
	maxSeed         = 1_000_000_000 // random.org integer upper bound
	failBackoff     = time.Minute
)

// Client hands out seeds drawn from random.org through a local pool.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client

	now func() time.Time

	mu        sync.Mutex
	pool      []int64
	refilling bool
	retryAt   time.Time // no refill before this after a failed one
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		now:      time.Now,
	}
}

// Seed returns a non-negative seed. Uses the pool, refilling from random.org
// when low. Falls back to crypto/rand on API failure or a nil client.
//
// The lock is never held across the HTTP call. Callers that arrive while
// another refill is in flight, or within failBackoff of a failed one, take
// from what is left of the pool or fall back to crypto/rand.
func (c *Client) Seed() int64 {
	if c == nil {
		return CryptoSeed()
	}

	c.mu.Lock()
	if len(c.pool) < poolLow && !c.refilling && !c.now().Before(c.retryAt) {
		c.refilling = true
		c.mu.Unlock()

		data, err := c.fetch()

		c.mu.Lock()
		c.refilling = false
		if err != nil {
			slog.Debug("random.org refill failed", "error", err, "retry_in", failBackoff)
			c.retryAt = c.now().Add(failBackoff)
		} else {
			c.pool = append(c.pool, data...)
			slog.Debug("random.org pool refilled", "count", len(data))
		}
	}
	defer c.mu.Unlock()

	if len(c.pool) == 0 {
		return CryptoSeed()
	}

	val := c.pool[0]
	c.pool = c.pool[1:]
	return val
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) fetch() ([]int64, error) {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]any{
			"apiKey": c.apiKey,
			"n":      batchSize,
			"min":    0,
			"max":    maxSeed,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	resp, err := c.client.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var result struct {
		Result struct {
			Random struct {
				Data []int64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("api: %s", result.Error.Message)
	}
	if len(result.Result.Random.Data) == 0 {
		return nil, errors.New("empty batch")
	}
	return result.Result.Random.Data, nil
}

// CryptoSeed returns a non-negative seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; fall back to the clock.
		return time.Now().UnixNano() & (1<<63 - 1)
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}
