package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

func TestSignalBus_PatternSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewSignalBus()

	books, _ := bus.Subscribe(ctx, "book:*")
	markets, _ := bus.Subscribe(ctx, domain.ChannelMarkets)

	bus.Publish(ctx, domain.BookChannel("grass"), []byte("b"))
	bus.Publish(ctx, domain.ChannelMarkets, []byte("m"))

	if got := string(<-books); got != "b" {
		t.Errorf("Expected book payload, got %q", got)
	}
	if got := string(<-markets); got != "m" {
		t.Errorf("Expected markets payload, got %q", got)
	}
	select {
	case p := <-books:
		t.Errorf("Unexpected payload %q on book pattern", p)
	default:
	}
}

func TestSignalBus_SubscriptionClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := NewSignalBus().Subscribe(ctx, "x")
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("Subscription was not closed")
	}
}

func TestSignalBus_Streams(t *testing.T) {
	ctx := context.Background()
	bus := NewSignalBus()
	for _, p := range []string{"a", "b", "c"} {
		bus.StreamAppend(ctx, domain.StreamTradeTape, []byte(p))
	}

	first, _ := bus.StreamRead(ctx, domain.StreamTradeTape, "0", 2)
	if len(first) != 2 || string(first[0].Payload) != "a" {
		t.Fatalf("Unexpected first page %+v", first)
	}
	rest, _ := bus.StreamRead(ctx, domain.StreamTradeTape, first[1].ID, 10)
	if len(rest) != 1 || string(rest[0].Payload) != "c" {
		t.Errorf("Unexpected second page %+v", rest)
	}
}

func TestLockManager_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(0, 0)
	lm := NewLockManager()
	lm.now = func() time.Time { return now }

	unlock, err := lm.Acquire(ctx, "sim", time.Second)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if _, err := lm.Acquire(ctx, "sim", time.Second); !errors.Is(err, domain.ErrLockHeld) {
		t.Errorf("Expected ErrLockHeld, got %v", err)
	}
	if err := lm.Extend(ctx, "sim", 2*time.Second); err != nil {
		t.Errorf("Extend failed: %v", err)
	}

	now = now.Add(3 * time.Second)
	if err := lm.Extend(ctx, "sim", time.Second); !errors.Is(err, domain.ErrLockHeld) {
		t.Errorf("Expected expired lock, got %v", err)
	}
	if _, err := lm.Acquire(ctx, "sim", time.Second); err != nil {
		t.Errorf("Expected expired lock to be reacquirable, got %v", err)
	}
	unlock()
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(0, 0)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return now }

	for i := range 3 {
		if ok, _ := rl.Allow(ctx, "k", 3, time.Second); !ok {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if ok, _ := rl.Allow(ctx, "k", 3, time.Second); ok {
		t.Error("Expected fourth request to be limited")
	}
	now = now.Add(1001 * time.Millisecond)
	if ok, _ := rl.Allow(ctx, "k", 3, time.Second); !ok {
		t.Error("Expected window to slide")
	}
}

func TestCaches_NotFound(t *testing.T) {
	ctx := context.Background()
	if _, err := NewMarketCache().Get(ctx, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, _, err := NewPriceCache().GetPrice(ctx, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := NewOrderbookCache().GetSnapshot(ctx, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTradeCache_CappedNewestFirst(t *testing.T) {
	ctx := context.Background()
	c := NewTradeCache()

	if _, err := c.RecentTrades(ctx, "grass", 5); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for an empty market, got %v", err)
	}
	for id := int64(1); id <= 5; id++ {
		c.PushTrade(ctx, domain.Trade{ID: id, MarketID: "grass"}, 3)
	}

	got, err := c.RecentTrades(ctx, "grass", 0)
	if err != nil {
		t.Fatalf("RecentTrades failed: %v", err)
	}
	if len(got) != 3 || got[0].ID != 5 || got[2].ID != 3 {
		t.Errorf("Expected trades 5,4,3, got %+v", got)
	}
	if got, _ := c.RecentTrades(ctx, "grass", 2); len(got) != 2 {
		t.Errorf("Expected 2 trades, got %d", len(got))
	}
}
