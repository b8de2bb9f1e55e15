package sim

import (
	"testing"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

func TestPerturb_ExactStep(t *testing.T) {
	m := testMarket("m", 1, domain.MarketStatusLive)
	// 0.75 -> +2.5% price, 0.5 -> no volume change, 0.5 -> no drift.
	flash := perturb(&m, 1, &scriptedRand{floats: []float64{0.75, 0.5, 0.5}})

	if flash != domain.FlashUp {
		t.Errorf("Expected up flash, got %q", flash)
	}
	if m.LastPrice != 1.025 {
		t.Errorf("Expected 1.025, got %v", m.LastPrice)
	}
	if m.PriceChange24h != 2.5 {
		t.Errorf("Expected 2.5%% change, got %v", m.PriceChange24h)
	}
	if m.Volume24h != 1_000 {
		t.Errorf("Expected unchanged volume, got %v", m.Volume24h)
	}
	if got := m.ChartData[ChartLen-1]; got != 11.25 {
		t.Errorf("Expected chart sample 11.25, got %v", got)
	}
	if m.ChartColor != domain.ChartGreen {
		t.Errorf("Expected green chart, got %q", m.ChartColor)
	}
}

func TestPerturb_DownAndFloor(t *testing.T) {
	m := testMarket("m", domain.MinPrice, domain.MarketStatusLive)
	m.ChartData[ChartLen-1] = 1
	flash := perturb(&m, domain.MinPrice, &scriptedRand{floats: []float64{0}})

	if m.LastPrice != domain.MinPrice {
		t.Errorf("Expected price floored at %v, got %v", domain.MinPrice, m.LastPrice)
	}
	if flash != domain.FlashNone {
		t.Errorf("Expected no flash when the floor absorbs the move, got %q", flash)
	}
	if m.ChartData[ChartLen-1] != 1 {
		t.Errorf("Expected chart sample floored at 1, got %v", m.ChartData[ChartLen-1])
	}
}

func TestPerturb_RedChart(t *testing.T) {
	m := testMarket("m", 2, domain.MarketStatusLive)
	flash := perturb(&m, 2, &scriptedRand{floats: []float64{0.25}})
	if flash != domain.FlashDown {
		t.Errorf("Expected down flash, got %q", flash)
	}
	if m.ChartColor != domain.ChartRed {
		t.Errorf("Expected red chart, got %q", m.ChartColor)
	}
	if m.PriceChange24h != -2.5 {
		t.Errorf("Expected -2.5%%, got %v", m.PriceChange24h)
	}
}

func TestLiveUpdater_InvariantsOverManyTicks(t *testing.T) {
	clk := newFakeClock()
	store := NewMarketStore([]domain.Market{
		testMarket("a", domain.MinPrice, domain.MarketStatusLive),
		testMarket("b", 0.002, domain.MarketStatusLive),
		testMarket("c", 5, domain.MarketStatusLive),
		testMarket("d", 1, domain.MarketStatusUpcoming),
	})
	u := NewLiveUpdater(store, clk, NewRand(99), nil)
	u.Start()

	for range 500 {
		clk.Advance(10 * time.Second)
		for _, m := range store.List() {
			if m.LastPrice < domain.MinPrice {
				t.Fatalf("%s: price %v below floor", m.ID, m.LastPrice)
			}
			if len(m.ChartData) != ChartLen {
				t.Fatalf("%s: chart length %d", m.ID, len(m.ChartData))
			}
		}
	}
	if u.Ticks() == 0 {
		t.Fatal("Expected ticks to run")
	}
	d, _ := store.Get("d")
	if d.LastPrice != 1 {
		t.Errorf("Expected upcoming market untouched, got %v", d.LastPrice)
	}
}

func TestLiveUpdater_TickDelayWindow(t *testing.T) {
	clk := newFakeClock()
	store := NewMarketStore([]domain.Market{testMarket("a", 1, domain.MarketStatusLive)})
	u := NewLiveUpdater(store, clk, &scriptedRand{}, nil)
	u.Start()
	if u.State() != UpdaterWaiting {
		t.Fatalf("Expected waiting, got %s", u.State())
	}

	clk.Advance(4999 * time.Millisecond)
	if u.Ticks() != 0 {
		t.Fatal("Expected no tick before 5s")
	}
	clk.Advance(time.Millisecond)
	if u.Ticks() != 1 {
		t.Fatalf("Expected one tick at 5s, got %d", u.Ticks())
	}
}

func TestLiveUpdater_IdleWithoutLiveMarkets(t *testing.T) {
	clk := newFakeClock()
	store := NewMarketStore([]domain.Market{testMarket("a", 1, domain.MarketStatusUpcoming)})
	u := NewLiveUpdater(store, clk, NewRand(1), nil)
	u.Start()

	if u.State() != UpdaterIdle {
		t.Errorf("Expected idle, got %s", u.State())
	}
	if clk.Pending() != 0 {
		t.Errorf("Expected nothing scheduled, got %d", clk.Pending())
	}
}

func TestLiveUpdater_FlashClearsAfter1200ms(t *testing.T) {
	clk := newFakeClock()
	store := NewMarketStore([]domain.Market{testMarket("a", 1, domain.MarketStatusLive)})
	var ticked []domain.LiveMarket
	u := NewLiveUpdater(store, clk, &scriptedRand{floats: []float64{0.9}}, func(ms []domain.LiveMarket) {
		ticked = ms
	})

	u.Tick()
	if len(ticked) != 1 || ticked[0].Flash != domain.FlashUp {
		t.Fatalf("Expected one up flash, got %+v", ticked)
	}
	if got := u.LiveMarkets()[0].Flash; got != domain.FlashUp {
		t.Fatalf("Expected projected flash up, got %q", got)
	}

	clk.Advance(MarketFlashDuration - time.Millisecond)
	if got := u.LiveMarkets()[0].Flash; got != domain.FlashUp {
		t.Errorf("Expected flash to persist before 1200ms, got %q", got)
	}
	clk.Advance(time.Millisecond)
	if got := u.LiveMarkets()[0].Flash; got != domain.FlashNone {
		t.Errorf("Expected flash cleared at 1200ms, got %q", got)
	}
}

func TestLiveUpdater_SamplesAtMostFour(t *testing.T) {
	clk := newFakeClock()
	var markets []domain.Market
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		markets = append(markets, testMarket(id, 1, domain.MarketStatusLive))
	}
	store := NewMarketStore(markets)
	u := NewLiveUpdater(store, clk, NewRand(3), nil)

	for range 100 {
		updated := u.Tick()
		if len(updated) < 1 || len(updated) > 4 {
			t.Fatalf("Expected 1..4 updates, got %d", len(updated))
		}
		seen := map[string]bool{}
		for _, m := range updated {
			if seen[m.ID] {
				t.Fatalf("Market %s sampled twice", m.ID)
			}
			seen[m.ID] = true
		}
	}
}

func TestLiveUpdater_StopCancelsTimers(t *testing.T) {
	clk := newFakeClock()
	store := NewMarketStore([]domain.Market{testMarket("a", 1, domain.MarketStatusLive)})
	u := NewLiveUpdater(store, clk, NewRand(5), nil)
	u.Start()
	u.Tick()

	u.Stop()
	if clk.Pending() != 0 {
		t.Errorf("Expected no pending timers, got %d", clk.Pending())
	}
	if u.State() != UpdaterStopped {
		t.Errorf("Expected stopped, got %s", u.State())
	}
	clk.Advance(time.Minute)
	if u.Ticks() != 1 {
		t.Errorf("Expected no ticks after stop, got %d", u.Ticks())
	}
}

func TestLiveUpdater_RestartAfterStop(t *testing.T) {
	clk := newFakeClock()
	store := NewMarketStore([]domain.Market{testMarket("a", 1, domain.MarketStatusLive)})
	u := NewLiveUpdater(store, clk, &scriptedRand{}, nil)

	u.Start()
	clk.Advance(5 * time.Second)
	u.Stop()
	if u.State() != UpdaterStopped {
		t.Fatalf("Expected stopped, got %s", u.State())
	}
	if got := u.LiveMarkets()[0].Flash; got != domain.FlashNone {
		t.Errorf("Expected flashes dropped on stop, got %q", got)
	}

	u.Start()
	if u.State() != UpdaterWaiting {
		t.Fatalf("Expected waiting after restart, got %s", u.State())
	}
	clk.Advance(5 * time.Second)
	if u.Ticks() != 2 {
		t.Errorf("Expected a second tick after restart, got %d", u.Ticks())
	}
	if clk.Pending() != 2 {
		t.Errorf("Expected one tick and one flash timer pending, got %d", clk.Pending())
	}
}
