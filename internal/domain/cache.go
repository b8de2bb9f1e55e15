package domain

import (
	"context"
	"time"
)

// PriceCache provides fast access to the latest simulated prices.
type PriceCache interface {
	SetPrice(ctx context.Context, marketID string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, marketID string) (float64, time.Time, error)
	GetPrices(ctx context.Context, marketIDs []string) (map[string]float64, error)
}

// OrderbookCache stores the latest order book snapshot per market.
type OrderbookCache interface {
	SetSnapshot(ctx context.Context, book OrderBook) error
	GetSnapshot(ctx context.Context, marketID string) (OrderBook, error)
}

// TradeCache keeps the newest trades of each market, newest first.
type TradeCache interface {
	PushTrade(ctx context.Context, trade Trade, keep int) error
	// RecentTrades returns ErrNotFound when nothing is cached for the market.
	RecentTrades(ctx context.Context, marketID string, n int) ([]Trade, error)
}

// MarketCache provides fast market lookups.
type MarketCache interface {
	Set(ctx context.Context, market Market) error
	Get(ctx context.Context, id string) (Market, error)
	Invalidate(ctx context.Context, id string) error
}

// RateLimiter provides (possibly distributed) rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides (possibly distributed) locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
	// Extend renews a held lock; it returns ErrLockHeld once the lock is lost.
	Extend(ctx context.Context, key string, ttl time.Duration) error
}

// StreamMessage is a single entry from a durable stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub and durable streams.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}

// Bus channel and stream names.
const (
	ChannelMarkets    = "markets"
	ChannelTrades     = "trades"
	ChannelBookPrefix = "book:"
	StreamTradeTape   = "stream:trades"
)

// BookChannel returns the pub/sub channel for a market's order book.
func BookChannel(marketID string) string { return ChannelBookPrefix + marketID }
