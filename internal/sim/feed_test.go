package sim

import (
	"testing"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

func TestTradeFeed_EmitOrderAndHighlight(t *testing.T) {
	clk := newFakeClock()
	var calls []string
	f := NewTradeFeed(testMarket("m", 2, domain.MarketStatusLive), nil, clk, FeedOptions{Backfill: -1}, FeedHooks{
		OnTrade:   func(side domain.Side) { calls = append(calls, "trade:"+string(side)) },
		OnPublish: func(tr domain.Trade) { calls = append(calls, "publish") },
	})

	tr := f.Emit()
	if tr.ID != 1 || !tr.IsNew || tr.MarketID != "m" {
		t.Fatalf("Unexpected trade %+v", tr)
	}
	if tr.Side != tradeTemplates[0].side {
		t.Errorf("Expected first template side %s, got %s", tradeTemplates[0].side, tr.Side)
	}
	if len(calls) != 2 || calls[0] != "trade:"+string(tr.Side) || calls[1] != "publish" {
		t.Errorf("Expected OnTrade before OnPublish, got %v", calls)
	}

	clk.Advance(NewTradeHighlight - time.Millisecond)
	if !f.Trades()[0].IsNew {
		t.Error("Expected trade to stay new before 600ms")
	}
	clk.Advance(time.Millisecond)
	if f.Trades()[0].IsNew {
		t.Error("Expected new flag cleared at 600ms")
	}
}

func TestTradeFeed_CapacityAndCycling(t *testing.T) {
	clk := newFakeClock()
	f := NewTradeFeed(testMarket("m", 2, domain.MarketStatusLive), nil, clk, FeedOptions{Capacity: 3, Backfill: -1}, FeedHooks{})

	var last domain.Trade
	for range len(tradeTemplates) + 1 {
		last = f.Emit()
	}
	trades := f.Trades()
	if len(trades) != 3 {
		t.Fatalf("Expected 3 visible trades, got %d", len(trades))
	}
	if trades[0].ID != last.ID || trades[2].ID != last.ID-2 {
		t.Errorf("Expected newest first, got ids %d..%d", trades[0].ID, trades[2].ID)
	}
	if last.Side != tradeTemplates[0].side || last.Amount != tradeTemplates[0].amount {
		t.Errorf("Expected template pool to wrap, got %+v", last)
	}
}

func TestTradeFeed_IntervalAndLabels(t *testing.T) {
	clk := newFakeClock()
	f := NewTradeFeed(testMarket("m", 2, domain.MarketStatusLive), nil, clk, FeedOptions{Backfill: -1}, FeedHooks{})
	f.Start()
	defer f.Stop()

	clk.Advance(DefaultTradeInterval - time.Second)
	if len(f.Trades()) != 0 {
		t.Fatal("Expected no trade before the interval")
	}
	clk.Advance(time.Second)
	if len(f.Trades()) != 1 {
		t.Fatalf("Expected one trade at %v, got %d", DefaultTradeInterval, len(f.Trades()))
	}

	clk.Advance(65 * time.Second)
	trades := f.Trades()
	if len(trades) != 2 {
		t.Fatalf("Expected two trades, got %d", len(trades))
	}
	if trades[1].TimeLabel != "1 min ago" {
		t.Errorf("Expected oldest label %q, got %q", "1 min ago", trades[1].TimeLabel)
	}
	if trades[0].TimeLabel != "Just now" {
		t.Errorf("Expected newest label %q, got %q", "Just now", trades[0].TimeLabel)
	}
}

func TestTradeFeed_Backfill(t *testing.T) {
	clk := newFakeClock()
	f := NewTradeFeed(testMarket("m", 2, domain.MarketStatusLive), nil, clk, FeedOptions{Backfill: 3}, FeedHooks{})

	trades := f.Trades()
	want := []string{"3 min ago", "6 min ago", "9 min ago"}
	if len(trades) != len(want) {
		t.Fatalf("Expected %d trades, got %d", len(want), len(trades))
	}
	for i, tr := range trades {
		if tr.TimeLabel != want[i] {
			t.Errorf("trade %d: expected %q, got %q", i, want[i], tr.TimeLabel)
		}
		if tr.IsNew {
			t.Errorf("trade %d: backfilled trades are not new", i)
		}
	}
	if next := f.Emit(); next.ID != 4 {
		t.Errorf("Expected id counter to continue at 4, got %d", next.ID)
	}
}

func TestTradeFeed_StopCancelsTimers(t *testing.T) {
	clk := newFakeClock()
	f := NewTradeFeed(testMarket("m", 2, domain.MarketStatusLive), nil, clk, FeedOptions{Backfill: -1}, FeedHooks{})
	f.Start()
	f.Emit()
	f.Stop()

	if clk.Pending() != 0 {
		t.Errorf("Expected no pending timers, got %d", clk.Pending())
	}
	clk.Advance(5 * time.Minute)
	if len(f.Trades()) != 1 {
		t.Errorf("Expected no trades after stop, got %d", len(f.Trades()))
	}
}
