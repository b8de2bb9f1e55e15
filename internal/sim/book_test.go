package sim

import (
	"errors"
	"math"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

func TestFillRandom_AllFullIsNoop(t *testing.T) {
	orders := GenerateSellOrders(1, domain.ChainSolana)
	for i := range orders {
		orders[i].FillType = domain.FillTypeFull
	}
	before := slices.Clone(orders)

	out, idx := FillRandom(orders, NewRand(1))
	if idx != -1 {
		t.Errorf("Expected -1, got %d", idx)
	}
	if !reflect.DeepEqual(out, before) {
		t.Error("Expected list to be unchanged")
	}
}

func TestFillRandom_StepBounds(t *testing.T) {
	orders := GenerateSellOrders(1, domain.ChainSolana)

	// sell-1 is the second eligible row and starts at 0%.
	out, idx := FillRandom(orders, &scriptedRand{ints: []int{1, 0}})
	if out[idx].ID != "sell-1" || out[idx].FillPercent != 15 {
		t.Errorf("Expected sell-1 at 15%%, got %s at %v", out[idx].ID, out[idx].FillPercent)
	}
	out, idx = FillRandom(orders, &scriptedRand{ints: []int{1, 25}})
	if out[idx].FillPercent != 40 {
		t.Errorf("Expected 40%%, got %v", out[idx].FillPercent)
	}
	if orders[idx].FillPercent != 0 {
		t.Error("Expected input slice to stay untouched")
	}
}

func TestFillRandom_MonotonicAndFullImmutable(t *testing.T) {
	rng := NewRand(42)
	orders := GenerateBuyOrders(0.5, domain.ChainEthereum)
	for range 200 {
		next, _ := FillRandom(orders, rng)
		for i := range next {
			if next[i].FillPercent < orders[i].FillPercent {
				t.Fatalf("%s: fill decreased from %v to %v", next[i].ID, orders[i].FillPercent, next[i].FillPercent)
			}
			if next[i].FillPercent > 100 {
				t.Fatalf("%s: fill above 100: %v", next[i].ID, next[i].FillPercent)
			}
			if (orders[i].FillType == domain.FillTypeFull || orders[i].IsResell) && next[i].FillPercent != orders[i].FillPercent {
				t.Fatalf("%s: all-or-nothing order was partially filled", next[i].ID)
			}
			want := next[i].TotalAmount * next[i].FillPercent / 100
			if math.Abs(next[i].FilledAmount-want) > 1e-9 {
				t.Fatalf("%s: filled amount %v, want %v", next[i].ID, next[i].FilledAmount, want)
			}
		}
		orders = next
	}
}

func TestBook_CompletedOrderRetiresAfterDelay(t *testing.T) {
	clk := newFakeClock()
	var kinds []BookEventKind
	// Eligible buy rows are 0,1,3,4,6,8,9; buy-6 starts at 80%.
	rng := &scriptedRand{ints: []int{4, 25}}
	b := NewBook(testMarket("m", 1, domain.MarketStatusLive), clk, rng, func(e BookEvent) {
		kinds = append(kinds, e.Kind)
	})

	evt, ok := b.ApplyTrade(domain.SideBuy)
	if !ok || evt.OrderID != "buy-6" || evt.FillPercent != 100 {
		t.Fatalf("Expected buy-6 filled to 100, got %+v (ok=%v)", evt, ok)
	}

	snap := b.Snapshot()
	if _, err := b.Entry(domain.SideBuy, "buy-6"); err != nil {
		t.Fatalf("Expected buy-6 to stay listed right after completion: %v", err)
	}
	if !slices.Contains(snap.Flashed, "buy-6") {
		t.Errorf("Expected buy-6 to be flashed, got %v", snap.Flashed)
	}

	clk.Advance(FlashDuration)
	if slices.Contains(b.Snapshot().Flashed, "buy-6") {
		t.Error("Expected flash to clear after 600ms")
	}
	if _, err := b.Entry(domain.SideBuy, "buy-6"); err != nil {
		t.Fatal("Expected buy-6 to be listed until the retire delay elapses")
	}

	clk.Advance(RetireDelay - FlashDuration)
	if _, err := b.Entry(domain.SideBuy, "buy-6"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected buy-6 removed after %v, got %v", RetireDelay, err)
	}
	if len(b.Snapshot().Buy) != BookDepth-1 {
		t.Errorf("Expected %d buy rows, got %d", BookDepth-1, len(b.Snapshot().Buy))
	}

	want := []BookEventKind{BookFilled, BookFlashCleared, BookRetired}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("Expected events %v, got %v", want, kinds)
	}
}

func TestBook_PartialFillIsNotRetired(t *testing.T) {
	clk := newFakeClock()
	b := NewBook(testMarket("m", 1, domain.MarketStatusLive), clk, &scriptedRand{ints: []int{0, 0}}, nil)

	if _, ok := b.ApplyTrade(domain.SideSell); !ok {
		t.Fatal("Expected a fill")
	}
	clk.Advance(time.Second)
	if len(b.Snapshot().Sell) != BookDepth {
		t.Error("Expected partially filled order to stay listed")
	}
	if clk.Pending() != 0 {
		t.Errorf("Expected no pending timers, got %d", clk.Pending())
	}
}

func TestBook_TakeResell(t *testing.T) {
	clk := newFakeClock()
	b := NewBook(testMarket("m", 1, domain.MarketStatusLive), clk, NewRand(1), nil)

	resells := b.ResellOrders()
	if len(resells) == 0 {
		t.Fatal("Expected resell listings")
	}
	taken, err := b.TakeResell(resells[0].ID)
	if err != nil {
		t.Fatalf("TakeResell failed: %v", err)
	}
	if _, err := b.Entry(domain.SideBuy, taken.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("Expected resell listing removed immediately")
	}
	if clk.Pending() != 0 {
		t.Errorf("Expected no fade-out timer, got %d pending", clk.Pending())
	}

	if _, err := b.TakeResell("buy-0"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for non-resell row, got %v", err)
	}
}

func TestBook_StopCancelsTimers(t *testing.T) {
	clk := newFakeClock()
	b := NewBook(testMarket("m", 1, domain.MarketStatusLive), clk, &scriptedRand{ints: []int{4, 25}}, nil)
	b.ApplyTrade(domain.SideBuy)
	if clk.Pending() != 2 {
		t.Fatalf("Expected flash and retire timers, got %d", clk.Pending())
	}

	b.Stop()
	if clk.Pending() != 0 {
		t.Errorf("Expected all timers cancelled, got %d", clk.Pending())
	}
	if _, ok := b.ApplyTrade(domain.SideBuy); ok {
		t.Error("Expected stopped book to ignore trades")
	}
}

func TestBook_RestartRetiresCompletedOrders(t *testing.T) {
	clk := newFakeClock()
	b := NewBook(testMarket("m", 1, domain.MarketStatusLive), clk, &scriptedRand{ints: []int{4, 25}}, nil)
	b.ApplyTrade(domain.SideBuy)
	b.Stop()

	b.Start()
	if clk.Pending() != 1 {
		t.Fatalf("Expected the retire timer rescheduled, got %d pending", clk.Pending())
	}
	clk.Advance(RetireDelay)
	if _, err := b.Entry(domain.SideBuy, "buy-6"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected buy-6 retired after restart, got %v", err)
	}
	if _, ok := b.ApplyTrade(domain.SideSell); !ok {
		t.Error("Expected restarted book to accept trades")
	}
}
