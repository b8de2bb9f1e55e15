package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

const marketTTL = 10 * time.Minute

// MarketCache implements domain.MarketCache with one hash per market.
//
// Key schema:
//
//	market:{id}   - hash; field "data" holds the JSON market, "status" its status
//	markets:index - set of every cached market id
type MarketCache struct {
	c *Client
}

// NewMarketCache creates a MarketCache backed by the given Client.
func NewMarketCache(c *Client) *MarketCache {
	return &MarketCache{c: c}
}

func (mc *MarketCache) marketKey(id string) string { return mc.c.Key("market:" + id) }
func (mc *MarketCache) indexKey() string           { return mc.c.Key("markets:index") }

// Set stores a Market with a TTL and records it in the index.
func (mc *MarketCache) Set(ctx context.Context, market domain.Market) error {
	return mc.SetMany(ctx, []domain.Market{market})
}

// SetMany stores several markets in one transaction.
func (mc *MarketCache) SetMany(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}
	pipe := mc.c.rdb.TxPipeline()
	for _, m := range markets {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("redis: marshal market %s: %w", m.ID, err)
		}
		key := mc.marketKey(m.ID)
		pipe.HSet(ctx, key, "data", data, "status", string(m.Status))
		pipe.Expire(ctx, key, marketTTL)
		pipe.SAdd(ctx, mc.indexKey(), m.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set %d markets: %w", len(markets), err)
	}
	return nil
}

// Get retrieves a Market by id. It returns domain.ErrNotFound when the key
// does not exist.
func (mc *MarketCache) Get(ctx context.Context, id string) (domain.Market, error) {
	data, err := mc.c.rdb.HGet(ctx, mc.marketKey(id), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("redis: get market %s: %w", id, err)
	}

	var market domain.Market
	if err := json.Unmarshal(data, &market); err != nil {
		return domain.Market{}, fmt.Errorf("redis: unmarshal market %s: %w", id, err)
	}
	return market, nil
}

// IDs returns every market id recorded in the index.
func (mc *MarketCache) IDs(ctx context.Context) ([]string, error) {
	ids, err := mc.c.rdb.SMembers(ctx, mc.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list market ids: %w", err)
	}
	return ids, nil
}

// Invalidate removes a Market and its index entry.
func (mc *MarketCache) Invalidate(ctx context.Context, id string) error {
	pipe := mc.c.rdb.TxPipeline()
	pipe.Del(ctx, mc.marketKey(id))
	pipe.SRem(ctx, mc.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: invalidate market %s: %w", id, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.MarketCache = (*MarketCache)(nil)
