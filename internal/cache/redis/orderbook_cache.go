package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

const bookTTL = 10 * time.Minute

// OrderbookCache implements domain.OrderbookCache.
//
// Key schema:
//
//	book:{marketID}       - string holding the JSON snapshot
//	book:{marketID}:depth - hash with "buy", "sell" (row counts) and "ts"
type OrderbookCache struct {
	c *Client
}

// NewOrderbookCache creates an OrderbookCache backed by the given Client.
func NewOrderbookCache(c *Client) *OrderbookCache {
	return &OrderbookCache{c: c}
}

func (oc *OrderbookCache) bookKey(marketID string) string { return oc.c.Key("book:" + marketID) }
func (oc *OrderbookCache) depthKey(marketID string) string {
	return oc.c.Key("book:" + marketID + ":depth")
}

// SetSnapshot atomically replaces a market's snapshot.
func (oc *OrderbookCache) SetSnapshot(ctx context.Context, book domain.OrderBook) error {
	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("redis: marshal book %s: %w", book.MarketID, err)
	}

	pipe := oc.c.rdb.TxPipeline()
	pipe.Set(ctx, oc.bookKey(book.MarketID), data, bookTTL)
	pipe.HSet(ctx, oc.depthKey(book.MarketID),
		"buy", strconv.Itoa(len(book.Buy)),
		"sell", strconv.Itoa(len(book.Sell)),
		"ts", strconv.FormatInt(time.Now().UnixNano(), 10),
	)
	pipe.Expire(ctx, oc.depthKey(book.MarketID), bookTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set book %s: %w", book.MarketID, err)
	}
	return nil
}

// GetSnapshot returns a market's snapshot or domain.ErrNotFound.
func (oc *OrderbookCache) GetSnapshot(ctx context.Context, marketID string) (domain.OrderBook, error) {
	data, err := oc.c.rdb.Get(ctx, oc.bookKey(marketID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.OrderBook{}, domain.ErrNotFound
		}
		return domain.OrderBook{}, fmt.Errorf("redis: get book %s: %w", marketID, err)
	}
	var book domain.OrderBook
	if err := json.Unmarshal(data, &book); err != nil {
		return domain.OrderBook{}, fmt.Errorf("redis: unmarshal book %s: %w", marketID, err)
	}
	return book, nil
}

// Depth returns the cached row counts per side.
func (oc *OrderbookCache) Depth(ctx context.Context, marketID string) (buy, sell int, err error) {
	vals, err := oc.c.rdb.HMGet(ctx, oc.depthKey(marketID), "buy", "sell").Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis: get depth %s: %w", marketID, err)
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return 0, 0, domain.ErrNotFound
	}
	buy, err = strconv.Atoi(fmt.Sprint(vals[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("redis: parse depth %s: %w", marketID, err)
	}
	sell, err = strconv.Atoi(fmt.Sprint(vals[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("redis: parse depth %s: %w", marketID, err)
	}
	return buy, sell, nil
}

// Compile-time interface check.
var _ domain.OrderbookCache = (*OrderbookCache)(nil)
