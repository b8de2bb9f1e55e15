// Package memory implements the domain cache interfaces in process. It
// backs standalone mode and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// MarketCache is an in-memory domain.MarketCache.
type MarketCache struct {
	mu      sync.RWMutex
	markets map[string]domain.Market
}

// NewMarketCache creates an empty MarketCache.
func NewMarketCache() *MarketCache {
	return &MarketCache{markets: make(map[string]domain.Market)}
}

func (c *MarketCache) Set(_ context.Context, m domain.Market) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markets[m.ID] = m.Clone()
	return nil
}

func (c *MarketCache) Get(_ context.Context, id string) (domain.Market, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m.Clone(), nil
}

func (c *MarketCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.markets, id)
	return nil
}

type pricePoint struct {
	price float64
	ts    time.Time
}

// PriceCache is an in-memory domain.PriceCache.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]pricePoint
}

// NewPriceCache creates an empty PriceCache.
func NewPriceCache() *PriceCache {
	return &PriceCache{prices: make(map[string]pricePoint)}
}

func (c *PriceCache) SetPrice(_ context.Context, marketID string, price float64, ts time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[marketID] = pricePoint{price: price, ts: ts}
	return nil
}

func (c *PriceCache) GetPrice(_ context.Context, marketID string) (float64, time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.prices[marketID]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	return p.price, p.ts, nil
}

func (c *PriceCache) GetPrices(_ context.Context, marketIDs []string) (map[string]float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]float64, len(marketIDs))
	for _, id := range marketIDs {
		if p, ok := c.prices[id]; ok {
			out[id] = p.price
		}
	}
	return out, nil
}

// OrderbookCache is an in-memory domain.OrderbookCache.
type OrderbookCache struct {
	mu    sync.RWMutex
	books map[string]domain.OrderBook
}

// NewOrderbookCache creates an empty OrderbookCache.
func NewOrderbookCache() *OrderbookCache {
	return &OrderbookCache{books: make(map[string]domain.OrderBook)}
}

func (c *OrderbookCache) SetSnapshot(_ context.Context, book domain.OrderBook) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.books[book.MarketID] = book
	return nil
}

func (c *OrderbookCache) GetSnapshot(_ context.Context, marketID string) (domain.OrderBook, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.books[marketID]
	if !ok {
		return domain.OrderBook{}, domain.ErrNotFound
	}
	return b, nil
}

// TradeCache is an in-memory domain.TradeCache.
type TradeCache struct {
	mu     sync.RWMutex
	trades map[string][]domain.Trade
}

// NewTradeCache creates an empty TradeCache.
func NewTradeCache() *TradeCache {
	return &TradeCache{trades: make(map[string][]domain.Trade)}
}

func (c *TradeCache) PushTrade(_ context.Context, t domain.Trade, keep int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := append([]domain.Trade{t}, c.trades[t.MarketID]...)
	if keep > 0 && len(list) > keep {
		list = list[:keep]
	}
	c.trades[t.MarketID] = list
	return nil
}

func (c *TradeCache) RecentTrades(_ context.Context, marketID string, n int) ([]domain.Trade, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := c.trades[marketID]
	if len(list) == 0 {
		return nil, domain.ErrNotFound
	}
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	return slices.Clone(list), nil
}

var (
	_ domain.TradeCache     = (*TradeCache)(nil)
	_ domain.MarketCache    = (*MarketCache)(nil)
	_ domain.PriceCache     = (*PriceCache)(nil)
	_ domain.OrderbookCache = (*OrderbookCache)(nil)
)
