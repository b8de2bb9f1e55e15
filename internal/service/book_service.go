package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
	"github.com/SlugMacro/wm-fe-sub000/internal/metrics"
	"github.com/SlugMacro/wm-fe-sub000/internal/sim"
)

// BookSource resolves a market's live order book.
type BookSource interface {
	Book(marketID string) (*sim.Book, error)
}

// BookService mirrors order book changes into the orderbook cache and the
// per-market book channel, and serves book reads and resell purchases.
type BookService struct {
	books   BookSource
	cache   domain.OrderbookCache
	bus     domain.SignalBus
	metrics *metrics.Metrics
	now     func() time.Time
	logger  *slog.Logger
}

// NewBookService creates a BookService.
func NewBookService(
	books BookSource,
	cache domain.OrderbookCache,
	bus domain.SignalBus,
	m *metrics.Metrics,
	logger *slog.Logger,
) *BookService {
	return &BookService{
		books:   books,
		cache:   cache,
		bus:     bus,
		metrics: m,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "book_service")),
	}
}

// HandleBookEvent caches the new snapshot and publishes the event.
// Failures are logged and skipped.
func (s *BookService) HandleBookEvent(ctx context.Context, evt sim.BookEvent) {
	switch evt.Kind {
	case sim.BookFilled:
		s.metrics.Fill(evt.MarketID, string(evt.Side))
	case sim.BookRetired:
		s.metrics.Retired()
	case sim.BookResellTaken:
		s.metrics.ResellTaken()
	}

	if err := s.cache.SetSnapshot(ctx, evt.Book); err != nil {
		s.metrics.SideEffectFailed("orderbook_cache")
		s.logger.WarnContext(ctx, "book_service: set snapshot failed",
			slog.String("market_id", evt.MarketID),
			slog.String("error", err.Error()),
		)
	}

	payload, err := encodeEvent(EventBook, evt.MarketID, s.now(), evt)
	if err != nil {
		s.logger.ErrorContext(ctx, "book_service: encode event", slog.String("error", err.Error()))
		return
	}
	publish(ctx, s.bus, s.metrics, s.logger, domain.BookChannel(evt.MarketID), payload)
}

// Prime caches the initial snapshot of every listed market.
func (s *BookService) Prime(ctx context.Context, marketIDs []string) error {
	for _, id := range marketIDs {
		b, err := s.books.Book(id)
		if err != nil {
			return fmt.Errorf("book_service: prime %q: %w", id, err)
		}
		if err := s.cache.SetSnapshot(ctx, b.Snapshot()); err != nil {
			return fmt.Errorf("book_service: prime %q: %w", id, err)
		}
	}
	return nil
}

// Snapshot returns the cached book for a market, falling back to the local
// simulation.
func (s *BookService) Snapshot(ctx context.Context, marketID string) (domain.OrderBook, error) {
	if book, err := s.cache.GetSnapshot(ctx, marketID); err == nil {
		return book, nil
	}
	b, err := s.books.Book(marketID)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("book_service: snapshot %q: %w", marketID, err)
	}
	return b.Snapshot(), nil
}

// Entry returns one order from the cached book.
func (s *BookService) Entry(ctx context.Context, marketID string, side domain.Side, orderID string) (domain.OrderBookEntry, error) {
	book, err := s.Snapshot(ctx, marketID)
	if err != nil {
		return domain.OrderBookEntry{}, err
	}
	list := book.Buy
	if side == domain.SideSell {
		list = book.Sell
	}
	for _, e := range list {
		if e.ID == orderID {
			return e, nil
		}
	}
	return domain.OrderBookEntry{}, fmt.Errorf("book_service: order %q on %s %s: %w", orderID, marketID, side, domain.ErrNotFound)
}

// TakeResell buys a resell listing whole. The book's change hook publishes
// the resulting snapshot.
func (s *BookService) TakeResell(ctx context.Context, marketID, orderID string) (domain.OrderBookEntry, error) {
	b, err := s.books.Book(marketID)
	if err != nil {
		return domain.OrderBookEntry{}, fmt.Errorf("book_service: take resell: %w", err)
	}
	e, err := b.TakeResell(orderID)
	if err != nil {
		return domain.OrderBookEntry{}, fmt.Errorf("book_service: take resell %q: %w", orderID, err)
	}
	s.logger.InfoContext(ctx, "book_service: resell taken",
		slog.String("market_id", marketID),
		slog.String("order_id", orderID),
		slog.Float64("collateral", e.Collateral),
	)
	return e, nil
}
