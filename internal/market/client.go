// Package market fetches the live token price used to flavor draw
// results. The feed is best-effort: every read carries a deadline and
// degrades to the last-known-good (or configured fallback) price.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/manekigames/merit-engine/internal/clock"
)

// Quote is one observed price point. Degraded marks values served from
// the fallback chain instead of a live fetch.
type Quote struct {
	Symbol   string    `json:"symbol"`
	Price    float64   `json:"price"`
	At       time.Time `json:"at"`
	Degraded bool      `json:"degraded,omitempty"`
}

type wireQuote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// Client polls a JSON price endpoint. Safe for use from the refresh
// cron and request handlers concurrently.
type Client struct {
	baseURL  string
	symbol   string
	fallback float64
	clk      clock.Clock
	http     *http.Client

	mu      sync.Mutex
	last    Quote
	hasLast bool
}

func NewClient(baseURL, symbol string, timeout time.Duration, fallbackPrice float64, clk clock.Clock) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		baseURL:  baseURL,
		symbol:   symbol,
		fallback: fallbackPrice,
		clk:      clk,
		http:     &http.Client{Timeout: timeout},
	}
}

// Fetch performs one live read and caches the result.
func (c *Client) Fetch(ctx context.Context) (Quote, error) {
	if c.baseURL == "" {
		return Quote{}, fmt.Errorf("no price feed configured")
	}
	url := fmt.Sprintf("%s?symbol=%s", c.baseURL, c.symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("build price request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch price: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("price feed status %d", resp.StatusCode)
	}
	var w wireQuote
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return Quote{}, fmt.Errorf("decode price: %w", err)
	}
	if w.Price <= 0 {
		return Quote{}, fmt.Errorf("price feed returned non-positive price %v", w.Price)
	}
	q := Quote{Symbol: c.symbol, Price: w.Price, At: c.clk.Now()}
	c.mu.Lock()
	c.last, c.hasLast = q, true
	c.mu.Unlock()
	return q, nil
}

// Quote returns a live quote when the upstream answers within the
// context deadline, otherwise the last-known-good or fallback price
// marked Degraded. It errors only when no fallback exists at all.
func (c *Client) Quote(ctx context.Context) (Quote, error) {
	q, err := c.Fetch(ctx)
	if err == nil {
		return q, nil
	}
	c.mu.Lock()
	last, ok := c.last, c.hasLast
	c.mu.Unlock()
	if ok {
		last.Degraded = true
		return last, nil
	}
	if c.fallback > 0 {
		return Quote{Symbol: c.symbol, Price: c.fallback, At: c.clk.Now(), Degraded: true}, nil
	}
	return Quote{}, err
}
