package sim

import (
	"errors"
	"testing"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

func TestRollupOffset_InterleavesMarkets(t *testing.T) {
	a := testMarket("a", 1, domain.MarketStatusLive)
	b := testMarket("b", 2, domain.MarketStatusLive)

	open := flatten([]domain.Market{a, b}, MyOpenOrders)
	if len(open) != 4 {
		t.Fatalf("Expected 4 orders, got %d", len(open))
	}
	// offsets: a0=0, b0=7m45s, a1=14m, b1=21m45s
	wantIDs := []string{"open-a-0", "open-b-0", "open-a-1", "open-b-1"}
	for i, id := range wantIDs {
		if open[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, open[i].ID)
		}
	}
	wantLabels := []string{"Just now", "7 min ago", "14 min ago", "21 min ago"}
	for i, l := range wantLabels {
		if open[i].TimeLabel != l {
			t.Errorf("position %d: expected label %q, got %q", i, l, open[i].TimeLabel)
		}
	}
}

func TestRollupOffset_Formula(t *testing.T) {
	if got := RollupOffset(1, 0, 2); got != 7*time.Minute+45*time.Second {
		t.Errorf("Expected 7m45s, got %v", got)
	}
	if got := RollupOffset(2, 1, 5); got != 7*7*time.Minute+90*time.Second {
		t.Errorf("Expected 50m30s, got %v", got)
	}
}

func TestMyOpenOrders_ResellHasNoProgress(t *testing.T) {
	found := false
	for mi := range 10 {
		for _, o := range MyOpenOrders(testMarket("m", 1, domain.MarketStatusLive), mi) {
			if o.Side != domain.DashboardResell {
				continue
			}
			found = true
			if o.Progress != 0 {
				t.Errorf("%s (mi=%d): expected 0 progress, got %v", o.ID, mi, o.Progress)
			}
		}
	}
	if !found {
		t.Fatal("Expected at least one resell order")
	}
}

func TestMyFilledOrders_ProgressTable(t *testing.T) {
	orders := MyFilledOrders(testMarket("m", 1, domain.MarketStatusLive), 1)
	if orders[0].Progress != filledProgress[5%len(filledProgress)] {
		t.Errorf("Expected progress %v, got %v", filledProgress[5], orders[0].Progress)
	}
	if orders[1].Progress != filledProgress[6%len(filledProgress)] {
		t.Errorf("Expected progress %v, got %v", filledProgress[6], orders[1].Progress)
	}
}

func TestBuildDashboard_Seed(t *testing.T) {
	markets := SeedMarkets(epoch)
	d := BuildDashboard(markets)

	active := 0
	for _, m := range markets {
		if m.Status != domain.MarketStatusEnded {
			active++
		}
	}
	if len(d.Open()) != active*OrdersPerMarket || len(d.Filled()) != active*OrdersPerMarket {
		t.Errorf("Expected %d open and filled orders, got %d/%d", active*OrdersPerMarket, len(d.Open()), len(d.Filled()))
	}

	ended := d.Ended()
	if len(ended) != endedMarkets*len(endedTemplates) {
		t.Fatalf("Expected %d ended orders, got %d", endedMarkets*len(endedTemplates), len(ended))
	}
	for i, o := range ended {
		if o.Status != domain.EndedStatuses[i%len(domain.EndedStatuses)] {
			t.Errorf("ended %d: expected status %s, got %s", i, domain.EndedStatuses[i%len(domain.EndedStatuses)], o.Status)
		}
	}
	if ended[0].TimeLabel != "1 day ago" {
		t.Errorf("Expected first ended label %q, got %q", "1 day ago", ended[0].TimeLabel)
	}
}

func TestDashboard_CloseOrder(t *testing.T) {
	d := BuildDashboard(SeedMarkets(epoch))
	first := d.Open()[0]

	if err := d.CloseOrder(first.ID); err != nil {
		t.Fatalf("CloseOrder failed: %v", err)
	}
	for _, o := range d.Open() {
		if o.ID == first.ID {
			t.Fatal("Expected order to be removed")
		}
	}
	if err := d.CloseOrder(first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second close, got %v", err)
	}
}
