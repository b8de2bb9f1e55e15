package sim

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/clock"
	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

const (
	// FlashDuration is how long a freshly filled order stays highlighted.
	FlashDuration = 600 * time.Millisecond
	// RetireDelay is how long a fully filled order stays listed.
	RetireDelay = 800 * time.Millisecond

	minFillStep   = 15
	fillStepRange = 26 // steps are 15..40 inclusive
)

// FillRandom applies one simulated fill to a uniformly chosen eligible
// order. It returns a copy of orders with the fill applied and the index of
// the order that changed, or the input unchanged and -1 when nothing is
// eligible.
func FillRandom(orders []domain.OrderBookEntry, rng Rand) ([]domain.OrderBookEntry, int) {
	var eligible []int
	for i, o := range orders {
		if o.Fillable() {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return orders, -1
	}

	out := slices.Clone(orders)
	idx := eligible[rng.IntN(len(eligible))]
	step := float64(minFillStep + rng.IntN(fillStepRange))
	setFill(&out[idx], min(100, out[idx].FillPercent+step))
	return out, idx
}

// BookEventKind says what changed in a Book.
type BookEventKind string

const (
	BookFilled       BookEventKind = "filled"
	BookFlashCleared BookEventKind = "flash_cleared"
	BookRetired      BookEventKind = "retired"
	BookResellTaken  BookEventKind = "resell_taken"
)

// BookEvent is delivered to a Book's change hook after every visible change.
type BookEvent struct {
	Kind        BookEventKind    `json:"kind"`
	MarketID    string           `json:"market_id"`
	Side        domain.Side      `json:"side"`
	OrderID     string           `json:"order_id"`
	FillPercent float64          `json:"fill_percent"`
	Book        domain.OrderBook `json:"book"`
}

// Book owns the live order lists for one market.
type Book struct {
	marketID string
	clk      clock.Clock
	rng      Rand
	onChange func(BookEvent)

	mu       sync.Mutex
	buy      []domain.OrderBookEntry
	sell     []domain.OrderBookEntry
	flashed  map[string]clock.Timer
	retiring map[string]clock.Timer
	stopped  bool
}

// NewBook creates a Book seeded from the generator. onChange may be nil.
func NewBook(m domain.Market, clk clock.Clock, rng Rand, onChange func(BookEvent)) *Book {
	seed := GenerateOrderBook(m)
	return &Book{
		marketID: m.ID,
		clk:      clk,
		rng:      rng,
		onChange: onChange,
		buy:      seed.Buy,
		sell:     seed.Sell,
		flashed:  make(map[string]clock.Timer),
		retiring: make(map[string]clock.Timer),
	}
}

// MarketID returns the market this book belongs to.
func (b *Book) MarketID() string { return b.marketID }

// ApplyTrade fills a random eligible order on side. It reports false when
// no order was eligible.
func (b *Book) ApplyTrade(side domain.Side) (BookEvent, bool) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return BookEvent{}, false
	}
	list := b.list(side)
	out, idx := FillRandom(*list, b.rng)
	if idx < 0 {
		b.mu.Unlock()
		return BookEvent{}, false
	}
	*list = out
	filled := out[idx]

	if t, ok := b.flashed[filled.ID]; ok {
		t.Stop()
	}
	id := filled.ID
	var flash clock.Timer
	flash = b.clk.AfterFunc(FlashDuration, func() { b.clearFlash(side, id, flash) })
	b.flashed[id] = flash
	if filled.FillPercent >= 100 {
		if _, pending := b.retiring[id]; !pending {
			b.scheduleRetireLocked(side, id)
		}
	}

	evt := BookEvent{
		Kind:        BookFilled,
		MarketID:    b.marketID,
		Side:        side,
		OrderID:     id,
		FillPercent: filled.FillPercent,
		Book:        b.snapshotLocked(),
	}
	b.mu.Unlock()
	b.emit(evt)
	return evt, true
}

// TakeResell buys a resell listing whole and removes it at once.
func (b *Book) TakeResell(id string) (domain.OrderBookEntry, error) {
	b.mu.Lock()
	i := slices.IndexFunc(b.buy, func(e domain.OrderBookEntry) bool { return e.ID == id && e.IsResell })
	if i < 0 || b.stopped {
		b.mu.Unlock()
		return domain.OrderBookEntry{}, fmt.Errorf("sim: resell %q in %q: %w", id, b.marketID, domain.ErrNotFound)
	}
	taken := b.buy[i]
	b.buy = slices.Delete(slices.Clone(b.buy), i, i+1)
	evt := BookEvent{
		Kind:        BookResellTaken,
		MarketID:    b.marketID,
		Side:        domain.SideBuy,
		OrderID:     id,
		FillPercent: 100,
		Book:        b.snapshotLocked(),
	}
	b.mu.Unlock()
	b.emit(evt)
	return taken, nil
}

// Entry looks up a listed order by side and id.
func (b *Book) Entry(side domain.Side, id string) (domain.OrderBookEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range *b.list(side) {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.OrderBookEntry{}, fmt.Errorf("sim: order %q in %q: %w", id, b.marketID, domain.ErrNotFound)
}

// Snapshot returns a copy of both sides plus the currently flashed ids.
func (b *Book) Snapshot() domain.OrderBook {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// ResellOrders returns the resell listings currently on the buy side.
func (b *Book) ResellOrders() []domain.OrderBookEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.OrderBookEntry
	for _, e := range b.buy {
		if e.IsResell {
			out = append(out, e)
		}
	}
	return out
}

// Start re-enables a stopped book. Orders left fully filled by Stop are
// scheduled for retirement again.
func (b *Book) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.stopped {
		return
	}
	b.stopped = false
	for _, side := range []domain.Side{domain.SideBuy, domain.SideSell} {
		for _, e := range *b.list(side) {
			if _, pending := b.retiring[e.ID]; e.FillPercent >= 100 && !pending {
				b.scheduleRetireLocked(side, e.ID)
			}
		}
	}
}

// Stop cancels pending flash and retirement timers. Further trades are
// ignored until Start.
func (b *Book) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	for id, t := range b.flashed {
		t.Stop()
		delete(b.flashed, id)
	}
	for id, t := range b.retiring {
		t.Stop()
		delete(b.retiring, id)
	}
}

func (b *Book) clearFlash(side domain.Side, id string, t clock.Timer) {
	b.mu.Lock()
	if b.stopped || b.flashed[id] != t {
		b.mu.Unlock()
		return
	}
	delete(b.flashed, id)
	evt := BookEvent{Kind: BookFlashCleared, MarketID: b.marketID, Side: side, OrderID: id, Book: b.snapshotLocked()}
	b.mu.Unlock()
	b.emit(evt)
}

func (b *Book) scheduleRetireLocked(side domain.Side, id string) {
	var t clock.Timer
	t = b.clk.AfterFunc(RetireDelay, func() { b.retire(side, id, t) })
	b.retiring[id] = t
}

func (b *Book) retire(side domain.Side, id string, t clock.Timer) {
	b.mu.Lock()
	if b.stopped || b.retiring[id] != t {
		b.mu.Unlock()
		return
	}
	delete(b.retiring, id)
	list := b.list(side)
	*list = slices.DeleteFunc(slices.Clone(*list), func(e domain.OrderBookEntry) bool { return e.ID == id })
	evt := BookEvent{Kind: BookRetired, MarketID: b.marketID, Side: side, OrderID: id, FillPercent: 100, Book: b.snapshotLocked()}
	b.mu.Unlock()
	b.emit(evt)
}

func (b *Book) list(side domain.Side) *[]domain.OrderBookEntry {
	if side == domain.SideSell {
		return &b.sell
	}
	return &b.buy
}

func (b *Book) snapshotLocked() domain.OrderBook {
	flashed := make([]string, 0, len(b.flashed))
	for id := range b.flashed {
		flashed = append(flashed, id)
	}
	slices.Sort(flashed)
	return domain.OrderBook{
		MarketID: b.marketID,
		Buy:      slices.Clone(b.buy),
		Sell:     slices.Clone(b.sell),
		Flashed:  flashed,
	}
}

func (b *Book) emit(evt BookEvent) {
	if b.onChange != nil {
		b.onChange(evt)
	}
}
