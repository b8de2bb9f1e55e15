package sim

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// OrdersPerMarket is how many open and filled orders each market contributes.
const OrdersPerMarket = 2

const (
	rollupStep       = 7 * time.Minute
	rollupMarketStep = 45 * time.Second
	endedMarkets     = 4
	endedStep        = 26 * time.Hour
)

var (
	openSides    = []domain.DashboardSide{domain.DashboardBuy, domain.DashboardSell, domain.DashboardResell, domain.DashboardBuy, domain.DashboardSell}
	openAmounts  = []float64{5_000, 12_000, 2_500, 8_000, 20_000, 1_500}
	openProgress = []float64{0, 25, 50, 10, 75, 40, 60}

	filledSides    = []domain.DashboardSide{domain.DashboardBuy, domain.DashboardSell, domain.DashboardBuy}
	filledAmounts  = []float64{3_000, 9_500, 15_000, 4_200}
	filledProgress = []float64{100, 100, 85, 100, 60, 100, 95}

	sidePriceFactor = map[domain.DashboardSide]float64{
		domain.DashboardBuy:    0.95,
		domain.DashboardSell:   1.05,
		domain.DashboardResell: 1.10,
	}
)

type endedTemplate struct {
	side          domain.DashboardSide
	amount        float64
	priceFactor   float64
	receiveFactor float64
}

var endedTemplates = []endedTemplate{
	{domain.DashboardBuy, 10_000, 0.80, 1.25},
	{domain.DashboardSell, 6_000, 1.15, 1.00},
}

// rolledOrder pairs a dashboard order with the synthetic age used to sort it.
type rolledOrder struct {
	order  domain.DashboardOrder
	offset time.Duration
}

// RollupOffset is the synthetic age of order oi of market mi.
func RollupOffset(mi, oi, marketCount int) time.Duration {
	return time.Duration(oi*marketCount+mi)*rollupStep + time.Duration(mi)*rollupMarketStep
}

// MyOpenOrders returns the user's synthetic open orders in market m, which
// sits at index mi of the dashboard's market list.
func MyOpenOrders(m domain.Market, mi int) []domain.DashboardOrder {
	out := make([]domain.DashboardOrder, OrdersPerMarket)
	for oi := range OrdersPerMarket {
		side := openSides[(mi+oi)%len(openSides)]
		progress := openProgress[(mi*3+oi)%len(openProgress)]
		if side == domain.DashboardResell {
			progress = 0
		}
		out[oi] = dashboardOrder(fmt.Sprintf("open-%s-%d", m.ID, oi), m, mi+oi, side,
			openAmounts[(mi*2+oi)%len(openAmounts)], progress)
	}
	return out
}

// MyFilledOrders returns the user's synthetic filled orders in market m.
func MyFilledOrders(m domain.Market, mi int) []domain.DashboardOrder {
	out := make([]domain.DashboardOrder, OrdersPerMarket)
	for oi := range OrdersPerMarket {
		side := filledSides[(mi+oi)%len(filledSides)]
		out[oi] = dashboardOrder(fmt.Sprintf("filled-%s-%d", m.ID, oi), m, mi+oi+1, side,
			filledAmounts[(mi*2+oi)%len(filledAmounts)], filledProgress[(mi*5+oi)%len(filledProgress)])
	}
	return out
}

func dashboardOrder(id string, m domain.Market, variant int, side domain.DashboardSide, amount, progress float64) domain.DashboardOrder {
	price := Round6(m.LastPrice * sidePriceFactor[side])
	tok := domain.StableToken
	collateral := price * amount
	if variant%2 == 0 {
		tok = domain.NativeToken(m.Chain)
		collateral /= tok.USDPrice
	}
	o := domain.DashboardOrder{
		ID:              id,
		Market:          domain.RefOf(m),
		Side:            side,
		Price:           price,
		Amount:          amount,
		Collateral:      Round6(collateral),
		CollateralToken: tok.Symbol,
		Received:        Round2(amount * progress / 100),
		Progress:        progress,
	}
	if side == domain.DashboardResell {
		o.FillType = domain.FillTypeFull
	}
	return o
}

// flatten interleaves per-market orders by synthetic age and labels them.
func flatten(markets []domain.Market, gen func(domain.Market, int) []domain.DashboardOrder) []domain.DashboardOrder {
	var rolled []rolledOrder
	for mi, m := range markets {
		for oi, o := range gen(m, mi) {
			rolled = append(rolled, rolledOrder{order: o, offset: RollupOffset(mi, oi, len(markets))})
		}
	}
	slices.SortStableFunc(rolled, func(a, b rolledOrder) int {
		return cmp.Compare(a.offset, b.offset)
	})
	out := make([]domain.DashboardOrder, len(rolled))
	for i, r := range rolled {
		r.order.TimeLabel = RelativeTime(r.offset)
		out[i] = r.order
	}
	return out
}

// EndedOrders builds the ended-order list from the first few ended markets.
func EndedOrders(ended []domain.Market) []domain.DashboardEndedOrder {
	var out []domain.DashboardEndedOrder
	for mi, m := range ended[:min(endedMarkets, len(ended))] {
		for ti, tpl := range endedTemplates {
			row := len(out)
			price := Round6(m.LastPrice * tpl.priceFactor)
			collateral := Round6(price * tpl.amount)
			out = append(out, domain.DashboardEndedOrder{
				ID:              fmt.Sprintf("ended-%s-%d", m.ID, ti),
				Market:          domain.RefOf(m),
				Side:            tpl.side,
				Price:           price,
				Amount:          tpl.amount,
				Collateral:      collateral,
				CollateralToken: domain.StableToken.Symbol,
				Received:        Round2(collateral * tpl.receiveFactor),
				Status:          domain.EndedStatuses[row%len(domain.EndedStatuses)],
				TimeLabel:       RelativeTime(time.Duration(mi*len(endedTemplates)+ti+1) * endedStep),
			})
		}
	}
	return out
}

// Dashboard holds the user's rolled-up order lists for a session.
type Dashboard struct {
	mu     sync.RWMutex
	open   []domain.DashboardOrder
	filled []domain.DashboardOrder
	ended  []domain.DashboardEndedOrder
}

// BuildDashboard rolls up every market once. Markets that have not ended
// contribute open and filled orders; ended markets contribute ended orders.
func BuildDashboard(markets []domain.Market) *Dashboard {
	var active, ended []domain.Market
	for _, m := range markets {
		if m.Status == domain.MarketStatusEnded {
			ended = append(ended, m)
		} else {
			active = append(active, m)
		}
	}
	return &Dashboard{
		open:   flatten(active, MyOpenOrders),
		filled: flatten(active, MyFilledOrders),
		ended:  EndedOrders(ended),
	}
}

// Open returns the open orders, most recent first.
func (d *Dashboard) Open() []domain.DashboardOrder {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.open)
}

// Filled returns the filled orders, most recent first.
func (d *Dashboard) Filled() []domain.DashboardOrder {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.filled)
}

// Ended returns the orders in ended markets.
func (d *Dashboard) Ended() []domain.DashboardEndedOrder {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.ended)
}

// CloseOrder removes an open order.
func (d *Dashboard) CloseOrder(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := slices.IndexFunc(d.open, func(o domain.DashboardOrder) bool { return o.ID == id })
	if i < 0 {
		return fmt.Errorf("sim: close order %q: %w", id, domain.ErrNotFound)
	}
	d.open = slices.Delete(d.open, i, i+1)
	return nil
}
