// Package index fetches the two market-wide readings shown next to the
// market list: the crypto fear & greed index and BTC/ETH dominance.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

const (
	DefaultFearGreedURL = "https://api.alternative.me/fng/?limit=1"
	DefaultDominanceURL = "https://api.coingecko.com/api/v3/global"

	SourceFearGreed = "fear_greed"
	SourceDominance = "dominance"

	userAgent = "premarketd/1.0"
)

var errEmpty = errors.New("empty response")

// Config holds the index endpoints.
type Config struct {
	FearGreedURL string
	DominanceURL string
	Timeout      time.Duration
}

type fearGreedResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
	} `json:"data"`
}

type globalResponse struct {
	Data struct {
		MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
	} `json:"data"`
}

// Client holds the latest index readings. Values start at their defaults
// and are replaced only by a successful fetch.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	onFailure  func(source string)

	mu        sync.RWMutex
	fearGreed domain.FearGreedIndex
	dominance domain.DominanceIndex
}

// New creates a Client. onFailure is called once per failed fetch and may
// be nil.
func New(cfg Config, logger *slog.Logger, onFailure func(source string)) *Client {
	if cfg.FearGreedURL == "" {
		cfg.FearGreedURL = DefaultFearGreedURL
	}
	if cfg.DominanceURL == "" {
		cfg.DominanceURL = DefaultDominanceURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With(slog.String("component", "index")),
		onFailure:  onFailure,
		fearGreed:  domain.DefaultFearGreed,
		dominance:  domain.DefaultDominance,
	}
}

// Refresh fetches both indices once. Failures are logged and swallowed;
// the affected reading keeps its previous value. There is no retry.
func (c *Client) Refresh(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := c.fetchFearGreed(ctx); err != nil {
			c.fail(SourceFearGreed, err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := c.fetchDominance(ctx); err != nil {
			c.fail(SourceDominance, err)
		}
	}()
	wg.Wait()
}

// FearGreed returns the current fear & greed reading.
func (c *Client) FearGreed() domain.FearGreedIndex {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fearGreed
}

// Dominance returns the current dominance reading.
func (c *Client) Dominance() domain.DominanceIndex {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dominance
}

func (c *Client) fail(source string, err error) {
	c.logger.Warn("index: fetch failed, keeping previous value",
		slog.String("source", source),
		slog.String("error", err.Error()),
	)
	if c.onFailure != nil {
		c.onFailure(source)
	}
}

func (c *Client) fetchFearGreed(ctx context.Context) error {
	var resp fearGreedResponse
	if err := c.getJSON(ctx, c.cfg.FearGreedURL, &resp); err != nil {
		return err
	}
	if len(resp.Data) == 0 {
		return fmt.Errorf("index: fear greed: %w", errEmpty)
	}
	v, err := strconv.Atoi(resp.Data[0].Value)
	if err != nil {
		return fmt.Errorf("index: fear greed value %q: %w", resp.Data[0].Value, err)
	}
	label := resp.Data[0].Classification
	if label == "" {
		label = domain.DefaultFearGreed.Label
	}

	c.mu.Lock()
	c.fearGreed = domain.FearGreedIndex{Value: v, Label: label, UpdatedAt: time.Now().UTC()}
	c.mu.Unlock()
	c.logger.Info("index: fear greed updated", slog.Int("value", v), slog.String("label", label))
	return nil
}

func (c *Client) fetchDominance(ctx context.Context) error {
	var resp globalResponse
	if err := c.getJSON(ctx, c.cfg.DominanceURL, &resp); err != nil {
		return err
	}
	pct := resp.Data.MarketCapPercentage
	btc, okBTC := pct["btc"]
	eth, okETH := pct["eth"]
	if !okBTC || !okETH {
		return fmt.Errorf("index: dominance: %w", errEmpty)
	}

	c.mu.Lock()
	c.dominance = domain.DominanceIndex{BTC: roundTenth(btc), ETH: roundTenth(eth), UpdatedAt: time.Now().UTC()}
	c.mu.Unlock()
	c.logger.Info("index: dominance updated", slog.Float64("btc", btc), slog.Float64("eth", eth))
	return nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("index: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("index: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("index: get %s: unexpected status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("index: read %s: %w", url, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("index: decode %s: %w", url, err)
	}
	return nil
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
