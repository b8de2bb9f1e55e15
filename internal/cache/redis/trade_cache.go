package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

const tradeTTL = 30 * time.Minute

// TradeCache implements domain.TradeCache with one capped list per market.
//
// Key schema:
//
//	trades:{marketID} - list of JSON trades, newest at the head
type TradeCache struct {
	c *Client
}

// NewTradeCache creates a TradeCache backed by the given Client.
func NewTradeCache(c *Client) *TradeCache {
	return &TradeCache{c: c}
}

func (tc *TradeCache) tradesKey(marketID string) string { return tc.c.Key("trades:" + marketID) }

// PushTrade prepends t and trims the list to keep entries.
func (tc *TradeCache) PushTrade(ctx context.Context, t domain.Trade, keep int) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("redis: marshal trade %d: %w", t.ID, err)
	}
	key := tc.tradesKey(t.MarketID)

	pipe := tc.c.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	if keep > 0 {
		pipe.LTrim(ctx, key, 0, int64(keep-1))
	}
	pipe.Expire(ctx, key, tradeTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: push trade %s: %w", t.MarketID, err)
	}
	return nil
}

// RecentTrades returns up to n trades, newest first, or domain.ErrNotFound
// when the list is empty.
func (tc *TradeCache) RecentTrades(ctx context.Context, marketID string, n int) ([]domain.Trade, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n - 1)
	}
	vals, err := tc.c.rdb.LRange(ctx, tc.tradesKey(marketID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get trades %s: %w", marketID, err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrNotFound
	}
	out := make([]domain.Trade, 0, len(vals))
	for _, v := range vals {
		var t domain.Trade
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			return nil, fmt.Errorf("redis: unmarshal trade %s: %w", marketID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.TradeCache = (*TradeCache)(nil)
