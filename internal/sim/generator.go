package sim

import (
	"fmt"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// BookDepth is the number of rows generated per side.
const BookDepth = 10

// Buy side, closest to market first. Every table is indexed by row.
var (
	buySpread      = [BookDepth]float64{0.97, 0.965, 0.96, 0.955, 0.95, 0.945, 0.94, 0.93, 0.92, 0.91}
	buyAmount      = [BookDepth]float64{12_000, 8_500, 25_000, 5_000, 40_000, 15_000, 7_200, 30_000, 18_000, 60_000}
	buyNative      = [BookDepth]bool{true, false, true, false, false, true, false, true, false, false}
	buyFillType    = [BookDepth]domain.FillType{"", domain.FillTypePartial, domain.FillTypeFull, "", domain.FillTypePartial, domain.FillTypeFull, "", domain.FillTypeFull, domain.FillTypePartial, ""}
	buyFillPercent = [BookDepth]float64{0, 35, 0, 60, 10, 0, 80, 0, 25, 0}
	buyOwner       = [BookDepth]bool{false, false, false, true, false, false, false, false, false, true}
	buyResell      = [BookDepth]bool{false, false, false, false, false, true, false, true, false, false}
	buyOrigRatio   = [BookDepth]float64{0, 0, 0, 0, 0, 0.72, 0, 0.85, 0, 0}
)

// Sell side, ascending from market.
var (
	sellSpread      = [BookDepth]float64{1.003, 1.01, 1.015, 1.02, 1.03, 1.04, 1.05, 1.06, 1.075, 1.09}
	sellAmount      = [BookDepth]float64{9_000, 14_500, 6_000, 22_000, 3_500, 50_000, 11_000, 27_500, 8_000, 45_000}
	sellNative      = [BookDepth]bool{false, true, false, false, true, false, true, false, false, true}
	sellFillType    = [BookDepth]domain.FillType{domain.FillTypePartial, "", domain.FillTypeFull, domain.FillTypePartial, "", "", domain.FillTypeFull, domain.FillTypePartial, "", domain.FillTypeFull}
	sellFillPercent = [BookDepth]float64{20, 0, 0, 45, 70, 5, 0, 30, 90, 0}
	sellOwner       = [BookDepth]bool{false, false, true, false, false, false, false, false, true, false}
)

// GenerateBuyOrders returns the synthetic bid side for basePrice on chain.
// The result depends only on its inputs.
func GenerateBuyOrders(basePrice float64, chain domain.Chain) []domain.OrderBookEntry {
	out := make([]domain.OrderBookEntry, BookDepth)
	for i := range BookDepth {
		e := newEntry(fmt.Sprintf("buy-%d", i), basePrice*buySpread[i], buyAmount[i], buyNative[i], chain)
		e.FillType = buyFillType[i]
		e.IsOwner = buyOwner[i]
		if buyResell[i] {
			e.IsResell = true
			e.FillType = domain.FillTypeFull
			e.OriginalPrice = e.Price * buyOrigRatio[i]
			e.OriginalCollateral = e.Collateral * buyOrigRatio[i]
		} else {
			setFill(&e, buyFillPercent[i])
		}
		out[i] = e
	}
	return out
}

// GenerateSellOrders returns the synthetic ask side for basePrice on chain.
func GenerateSellOrders(basePrice float64, chain domain.Chain) []domain.OrderBookEntry {
	out := make([]domain.OrderBookEntry, BookDepth)
	for i := range BookDepth {
		e := newEntry(fmt.Sprintf("sell-%d", i), basePrice*sellSpread[i], sellAmount[i], sellNative[i], chain)
		e.FillType = sellFillType[i]
		e.IsOwner = sellOwner[i]
		setFill(&e, sellFillPercent[i])
		out[i] = e
	}
	return out
}

// GenerateOrderBook builds both sides of m's book from its current price.
func GenerateOrderBook(m domain.Market) domain.OrderBook {
	return domain.OrderBook{
		MarketID: m.ID,
		Buy:      GenerateBuyOrders(m.LastPrice, m.Chain),
		Sell:     GenerateSellOrders(m.LastPrice, m.Chain),
		Flashed:  []string{},
	}
}

func newEntry(id string, price, amount float64, native bool, chain domain.Chain) domain.OrderBookEntry {
	tok := domain.StableToken
	collateral := price * amount
	if native {
		tok = domain.NativeToken(chain)
		collateral /= tok.USDPrice
	}
	return domain.OrderBookEntry{
		ID:              id,
		Price:           price,
		Amount:          amount,
		AmountFormatted: FormatAmount(amount),
		Collateral:      collateral,
		CollateralToken: tok.Symbol,
		CollateralIcon:  tok.Icon,
		TotalAmount:     amount,
	}
}

func setFill(e *domain.OrderBookEntry, pct float64) {
	e.FillPercent = pct
	e.FilledAmount = e.TotalAmount * pct / 100
}

// ResellProfit is what the previous holder makes by reselling e at its
// listed collateral.
func ResellProfit(e domain.OrderBookEntry) domain.ResellProfit {
	if !e.IsResell {
		return domain.ResellProfit{}
	}
	diff := e.Collateral - e.OriginalCollateral
	p := domain.ResellProfit{Amount: diff}
	if e.OriginalCollateral > 0 {
		p.Percent = Round2(diff / e.OriginalCollateral * 100)
	}
	return p
}
