package sim

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/clock"
	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// Hooks forward simulation output to the outside world. Every hook is
// optional and runs on the goroutine that produced the change.
type Hooks struct {
	OnMarkets func([]domain.LiveMarket)
	// OnMarketFlashCleared fires when a market's up/down flash resets.
	OnMarketFlashCleared func(domain.LiveMarket)
	OnBook               func(BookEvent)
	OnTrade              func(domain.Trade)
}

// Options configures a Simulator.
type Options struct {
	Markets        []domain.Market // nil means SeedMarkets
	Feed           FeedOptions
	CompactMarkets []string // markets whose feed ticks at CompactInterval
	// CompactInterval defaults to CompactTradeInterval.
	CompactInterval time.Duration
}

// Simulator wires the market store, live updater, per-market books and
// trade feeds, and the dashboard into one lifecycle.
type Simulator struct {
	logger  *slog.Logger
	store   *MarketStore
	updater *LiveUpdater
	books   map[string]*Book
	feeds   map[string]*TradeFeed
	dash    *Dashboard
	order   []string

	mu      sync.Mutex
	running bool
}

// New builds a stopped Simulator.
func New(opts Options, clk clock.Clock, rng Rand, hooks Hooks, logger *slog.Logger) *Simulator {
	markets := opts.Markets
	if markets == nil {
		markets = SeedMarkets(clk.Now())
	}
	store := NewMarketStore(markets)
	s := &Simulator{
		logger:  logger.With(slog.String("component", "simulator")),
		store:   store,
		updater: NewLiveUpdater(store, clk, rng, hooks.OnMarkets),
		books:   make(map[string]*Book),
		feeds:   make(map[string]*TradeFeed),
		dash:    BuildDashboard(markets),
	}
	if hooks.OnMarketFlashCleared != nil {
		s.updater.OnFlashCleared(hooks.OnMarketFlashCleared)
	}

	for _, m := range store.List() {
		if m.Status == domain.MarketStatusEnded {
			continue
		}
		book := NewBook(m, clk, rng, hooks.OnBook)

		fo := opts.Feed
		if slices.Contains(opts.CompactMarkets, m.ID) {
			fo.Interval = CompactTradeInterval
			if opts.CompactInterval > 0 {
				fo.Interval = opts.CompactInterval
			}
		}
		id := m.ID
		feed := NewTradeFeed(m, func() float64 {
			cur, err := store.Get(id)
			if err != nil {
				return m.LastPrice
			}
			return cur.LastPrice
		}, clk, fo, FeedHooks{
			OnTrade:   func(side domain.Side) { book.ApplyTrade(side) },
			OnPublish: hooks.OnTrade,
		})

		s.books[id] = book
		s.feeds[id] = feed
		s.order = append(s.order, id)
	}
	return s
}

// Start launches the live updater and every trade feed.
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.updater.Start()
	for _, id := range s.order {
		s.books[id].Start()
		s.feeds[id].Start()
	}
	s.logger.Info("sim: started",
		slog.Int("markets", len(s.store.List())),
		slog.Int("books", len(s.books)),
		slog.String("updater", string(s.updater.State())),
	)
}

// Stop cancels every timer owned by the simulation.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.updater.Stop()
	for _, id := range s.order {
		s.feeds[id].Stop()
		s.books[id].Stop()
	}
	s.logger.Info("sim: stopped", slog.Int64("ticks", s.updater.Ticks()))
}

// Running reports whether Start has been called without a matching Stop.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Store returns the market store.
func (s *Simulator) Store() *MarketStore { return s.store }

// Updater returns the live update scheduler.
func (s *Simulator) Updater() *LiveUpdater { return s.updater }

// Ticks returns how many live updates have been applied.
func (s *Simulator) Ticks() int64 { return s.updater.Ticks() }

// LiveMarkets projects every market with its current flash.
func (s *Simulator) LiveMarkets() []domain.LiveMarket { return s.updater.LiveMarkets() }

// Dashboard returns the rolled-up user orders.
func (s *Simulator) Dashboard() *Dashboard { return s.dash }

// MarketIDs lists the markets that have a book and a feed.
func (s *Simulator) MarketIDs() []string { return slices.Clone(s.order) }

// Book returns the order book for a market.
func (s *Simulator) Book(marketID string) (*Book, error) {
	b, ok := s.books[marketID]
	if !ok {
		return nil, fmt.Errorf("sim: book %q: %w", marketID, domain.ErrNotFound)
	}
	return b, nil
}

// Feed returns the trade feed for a market.
func (s *Simulator) Feed(marketID string) (*TradeFeed, error) {
	f, ok := s.feeds[marketID]
	if !ok {
		return nil, fmt.Errorf("sim: feed %q: %w", marketID, domain.ErrNotFound)
	}
	return f, nil
}
