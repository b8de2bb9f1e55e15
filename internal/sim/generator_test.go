package sim

import (
	"math"
	"reflect"
	"testing"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

func TestGenerateOrders_Deterministic(t *testing.T) {
	for _, chain := range []domain.Chain{domain.ChainSolana, domain.ChainEthereum, domain.ChainSui} {
		if !reflect.DeepEqual(GenerateBuyOrders(1.25, chain), GenerateBuyOrders(1.25, chain)) {
			t.Errorf("Expected identical buy orders for %s", chain)
		}
		if !reflect.DeepEqual(GenerateSellOrders(1.25, chain), GenerateSellOrders(1.25, chain)) {
			t.Errorf("Expected identical sell orders for %s", chain)
		}
	}
}

func TestGenerateOrders_SpreadInvariant(t *testing.T) {
	for _, base := range []float64{0.0001, 0.05, 1, 3.42, 1500} {
		buy := GenerateBuyOrders(base, domain.ChainEthereum)
		sell := GenerateSellOrders(base, domain.ChainEthereum)
		if len(buy) != BookDepth || len(sell) != BookDepth {
			t.Fatalf("Expected %d rows per side, got %d/%d", BookDepth, len(buy), len(sell))
		}
		for i, e := range buy {
			if e.Price >= base {
				t.Errorf("buy[%d] price %v not below base %v", i, e.Price, base)
			}
			if i > 0 && e.Price > buy[i-1].Price {
				t.Errorf("buy side not descending at %d", i)
			}
		}
		for i, e := range sell {
			if e.Price <= base {
				t.Errorf("sell[%d] price %v not above base %v", i, e.Price, base)
			}
			if i > 0 && e.Price < sell[i-1].Price {
				t.Errorf("sell side not ascending at %d", i)
			}
		}
	}
}

func TestGenerateBuyOrders_SolanaNativeFirstRow(t *testing.T) {
	buy := GenerateBuyOrders(0.05, domain.ChainSolana)
	for _, e := range buy {
		if e.Price >= 0.05 {
			t.Errorf("Expected price below 0.05, got %v", e.Price)
		}
	}
	if buy[0].CollateralToken != "SOL" {
		t.Errorf("Expected SOL collateral on first row, got %s", buy[0].CollateralToken)
	}
	wantCollateral := 0.05 * 0.97 * 12_000 / 150
	if math.Abs(buy[0].Collateral-wantCollateral) > 1e-9 {
		t.Errorf("Expected collateral %v, got %v", wantCollateral, buy[0].Collateral)
	}
	if buy[1].CollateralToken != "USDC" {
		t.Errorf("Expected USDC collateral on second row, got %s", buy[1].CollateralToken)
	}
}

func TestGenerateBuyOrders_UnknownChainFallsBackToSol(t *testing.T) {
	buy := GenerateBuyOrders(1, domain.ParseChain("bitcoin"))
	if buy[0].CollateralToken != "SOL" {
		t.Errorf("Expected SOL fallback, got %s", buy[0].CollateralToken)
	}
	odd := GenerateBuyOrders(1, domain.Chain("bitcoin"))
	if odd[0].CollateralToken != "SOL" {
		t.Errorf("Expected SOL fallback for raw chain, got %s", odd[0].CollateralToken)
	}
}

func TestGenerateBuyOrders_ResellRows(t *testing.T) {
	resells := 0
	for _, e := range GenerateBuyOrders(2, domain.ChainSui) {
		if !e.IsResell {
			continue
		}
		resells++
		if e.FillType != domain.FillTypeFull {
			t.Errorf("%s: expected FULL fill type, got %q", e.ID, e.FillType)
		}
		if e.FillPercent != 0 {
			t.Errorf("%s: expected 0 fill, got %v", e.ID, e.FillPercent)
		}
		if e.OriginalPrice <= 0 || e.OriginalPrice >= e.Price {
			t.Errorf("%s: unexpected original price %v", e.ID, e.OriginalPrice)
		}
		profit := ResellProfit(e)
		if profit.Amount <= 0 || profit.Percent <= 0 {
			t.Errorf("%s: expected positive resell profit, got %+v", e.ID, profit)
		}
	}
	if resells == 0 {
		t.Fatal("Expected at least one resell row")
	}
}

func TestGenerateOrders_FilledAmountInvariant(t *testing.T) {
	book := GenerateOrderBook(testMarket("m", 0.8, domain.MarketStatusLive))
	for _, e := range append(book.Buy, book.Sell...) {
		want := e.TotalAmount * e.FillPercent / 100
		if math.Abs(e.FilledAmount-want) > 1e-9 {
			t.Errorf("%s: filled %v, want %v", e.ID, e.FilledAmount, want)
		}
		if e.AmountFormatted == "" {
			t.Errorf("%s: empty formatted amount", e.ID)
		}
	}
}

func TestResellProfit_NonResell(t *testing.T) {
	p := ResellProfit(GenerateBuyOrders(1, domain.ChainSolana)[0])
	if p.Amount != 0 || p.Percent != 0 {
		t.Errorf("Expected zero profit for non-resell row, got %+v", p)
	}
}
