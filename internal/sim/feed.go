package sim

import (
	"slices"
	"sync"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/clock"
	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

const (
	DefaultFeedCapacity   = 12
	DefaultTradeInterval  = 45 * time.Second
	CompactTradeInterval  = 60 * time.Second
	NewTradeHighlight     = 600 * time.Millisecond
	LabelRefreshInterval  = 10 * time.Second
	DefaultBackfillTrades = 8
	backfillSpacing       = 3 * time.Minute
)

type tradeTemplate struct {
	side        domain.Side
	priceFactor float64
	amount      float64
	native      bool
}

var tradeTemplates = []tradeTemplate{
	{domain.SideBuy, 1.000, 4_200, false},
	{domain.SideSell, 1.004, 12_500, true},
	{domain.SideBuy, 0.996, 950, false},
	{domain.SideBuy, 1.002, 27_000, true},
	{domain.SideSell, 0.998, 6_300, false},
	{domain.SideSell, 1.010, 1_800, false},
	{domain.SideBuy, 0.990, 15_750, true},
	{domain.SideSell, 1.006, 8_400, false},
}

// FeedOptions tunes a TradeFeed. Zero values take the defaults; a negative
// Backfill disables backfilling.
type FeedOptions struct {
	Capacity int
	Interval time.Duration
	Backfill int
}

func (o FeedOptions) withDefaults() FeedOptions {
	if o.Capacity <= 0 {
		o.Capacity = DefaultFeedCapacity
	}
	if o.Interval <= 0 {
		o.Interval = DefaultTradeInterval
	}
	switch {
	case o.Backfill == 0:
		o.Backfill = DefaultBackfillTrades
	case o.Backfill < 0:
		o.Backfill = 0
	}
	return o
}

// FeedHooks are invoked synchronously from Emit, outside the feed's lock.
// OnTrade runs first so the book reflects the fill before OnPublish sees
// the trade.
type FeedHooks struct {
	OnTrade   func(side domain.Side)
	OnPublish func(trade domain.Trade)
}

// TradeFeed synthesizes recent trades for one market.
type TradeFeed struct {
	market domain.Market
	price  func() float64
	clk    clock.Clock
	opts   FeedOptions
	hooks  FeedHooks

	emitTask  *Task
	labelTask *Task

	mu        sync.Mutex
	trades    []domain.Trade
	nextID    int64
	cursor    int
	newTimers map[int64]clock.Timer
}

// NewTradeFeed creates a stopped feed for m. price reports the market's
// current price at emit time; nil means the seed price.
func NewTradeFeed(m domain.Market, price func() float64, clk clock.Clock, opts FeedOptions, hooks FeedHooks) *TradeFeed {
	opts = opts.withDefaults()
	if price == nil {
		seed := m.LastPrice
		price = func() float64 { return seed }
	}
	f := &TradeFeed{
		market:    m,
		price:     price,
		clk:       clk,
		opts:      opts,
		hooks:     hooks,
		newTimers: make(map[int64]clock.Timer),
	}
	f.emitTask = NewTask(clk, opts.Interval, func() { f.Emit() })
	f.labelTask = NewTask(clk, LabelRefreshInterval, f.RefreshLabels)
	f.backfill()
	return f
}

// Start begins the trade and label-refresh timers.
func (f *TradeFeed) Start() {
	f.emitTask.Start()
	f.labelTask.Start()
}

// Stop cancels every timer the feed owns.
func (f *TradeFeed) Stop() {
	f.emitTask.Stop()
	f.labelTask.Stop()
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, t := range f.newTimers {
		t.Stop()
		delete(f.newTimers, id)
	}
	for i := range f.trades {
		f.trades[i].IsNew = false
	}
}

// Capacity returns how many trades the feed keeps visible.
func (f *TradeFeed) Capacity() int { return f.opts.Capacity }

// Trades returns the visible trades, newest first.
func (f *TradeFeed) Trades() []domain.Trade {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.trades)
}

// Emit synthesizes one trade from the next template and publishes it.
func (f *TradeFeed) Emit() domain.Trade {
	price := f.price()

	f.mu.Lock()
	tpl := tradeTemplates[f.cursor]
	f.cursor = (f.cursor + 1) % len(tradeTemplates)
	t := f.newTradeLocked(tpl, price, f.clk.Now())
	t.IsNew = true
	f.trades = append([]domain.Trade{t}, f.trades...)
	if len(f.trades) > f.opts.Capacity {
		f.trades = f.trades[:f.opts.Capacity]
	}
	id := t.ID
	f.newTimers[id] = f.clk.AfterFunc(NewTradeHighlight, func() { f.clearNew(id) })
	f.mu.Unlock()

	if f.hooks.OnTrade != nil {
		f.hooks.OnTrade(t.Side)
	}
	if f.hooks.OnPublish != nil {
		f.hooks.OnPublish(t)
	}
	return t
}

// RefreshLabels recomputes every visible trade's relative time label.
func (f *TradeFeed) RefreshLabels() {
	now := f.clk.Now()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.trades {
		f.trades[i].TimeLabel = RelativeTime(now.Sub(f.trades[i].CreatedAt))
	}
}

func (f *TradeFeed) clearNew(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.newTimers, id)
	for i := range f.trades {
		if f.trades[i].ID == id {
			f.trades[i].IsNew = false
			return
		}
	}
}

// backfill seeds the list with older trades so a new feed is not empty.
func (f *TradeFeed) backfill() {
	n := min(f.opts.Backfill, f.opts.Capacity)
	if n == 0 {
		return
	}
	now := f.clk.Now()
	price := f.price()
	f.mu.Lock()
	defer f.mu.Unlock()
	// Oldest first so ids grow towards the head of the list.
	for i := n; i >= 1; i-- {
		tpl := tradeTemplates[f.cursor]
		f.cursor = (f.cursor + 1) % len(tradeTemplates)
		t := f.newTradeLocked(tpl, price, now.Add(-time.Duration(i)*backfillSpacing))
		f.trades = append([]domain.Trade{t}, f.trades...)
	}
}

func (f *TradeFeed) newTradeLocked(tpl tradeTemplate, price float64, at time.Time) domain.Trade {
	f.nextID++
	p := Round6(price * tpl.priceFactor)
	tok := domain.StableToken
	collateral := p * tpl.amount
	if tpl.native {
		tok = domain.NativeToken(f.market.Chain)
		collateral /= tok.USDPrice
	}
	return domain.Trade{
		ID:              f.nextID,
		MarketID:        f.market.ID,
		Side:            tpl.side,
		TokenSymbol:     f.market.TokenSymbol,
		Price:           p,
		Amount:          tpl.amount,
		Collateral:      Round6(collateral),
		CollateralToken: tok.Symbol,
		CreatedAt:       at,
		TimeLabel:       RelativeTime(f.clk.Now().Sub(at)),
	}
}
