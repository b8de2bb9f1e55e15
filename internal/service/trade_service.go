package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
	"github.com/SlugMacro/wm-fe-sub000/internal/metrics"
	"github.com/SlugMacro/wm-fe-sub000/internal/sim"
)

// maxPendingTrades bounds the insert buffer while PostgreSQL is unreachable.
const maxPendingTrades = 5000

// FeedSource resolves a market's trade feed.
type FeedSource interface {
	Feed(marketID string) (*sim.TradeFeed, error)
}

// TradeService fans simulated trades out to the bus, the recent-trades
// cache and the durable trade tape, and batches them into PostgreSQL when a
// store is configured. Recent trades are read cache first so nodes that do
// not drive the simulation serve the leader's feed.
type TradeService struct {
	feeds   FeedSource
	cache   domain.TradeCache
	trades  domain.TradeStore // nil outside full mode
	bus     domain.SignalBus
	metrics *metrics.Metrics
	now     func() time.Time
	logger  *slog.Logger

	mu      sync.Mutex
	pending []domain.Trade
}

// NewTradeService creates a TradeService. trades may be nil.
func NewTradeService(
	feeds FeedSource,
	cache domain.TradeCache,
	trades domain.TradeStore,
	bus domain.SignalBus,
	m *metrics.Metrics,
	logger *slog.Logger,
) *TradeService {
	return &TradeService{
		feeds:   feeds,
		cache:   cache,
		trades:  trades,
		bus:     bus,
		metrics: m,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "trade_service")),
	}
}

// HandleTrade publishes a freshly emitted trade, appends it to the trade
// tape stream and queues it for insertion. Failures are logged and skipped.
func (s *TradeService) HandleTrade(ctx context.Context, t domain.Trade) {
	s.metrics.Trade(t.MarketID, string(t.Side))

	payload, err := encodeEvent(EventTrade, t.MarketID, t.CreatedAt, t)
	if err != nil {
		s.logger.ErrorContext(ctx, "trade_service: encode trade", slog.String("error", err.Error()))
		return
	}
	publish(ctx, s.bus, s.metrics, s.logger, domain.ChannelTrades, payload)

	if err := s.cache.PushTrade(ctx, t, s.capacity(t.MarketID)); err != nil {
		s.metrics.SideEffectFailed("trade_cache")
		s.logger.WarnContext(ctx, "trade_service: cache push failed",
			slog.Int64("trade_id", t.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.bus.StreamAppend(ctx, domain.StreamTradeTape, payload); err != nil {
		s.metrics.SideEffectFailed("stream")
		s.logger.WarnContext(ctx, "trade_service: stream append failed",
			slog.Int64("trade_id", t.ID),
			slog.String("error", err.Error()),
		)
	}

	if s.trades == nil {
		return
	}
	s.mu.Lock()
	s.pending = append(s.pending, t)
	if over := len(s.pending) - maxPendingTrades; over > 0 {
		s.pending = s.pending[over:]
		s.logger.WarnContext(ctx, "trade_service: insert buffer full, dropped oldest", slog.Int("dropped", over))
	}
	s.mu.Unlock()
}

// Flush inserts every queued trade. On failure the batch is requeued.
func (s *TradeService) Flush(ctx context.Context) error {
	if s.trades == nil {
		return nil
	}
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := s.trades.InsertBatch(ctx, batch); err != nil {
		s.mu.Lock()
		s.pending = append(batch, s.pending...)
		if over := len(s.pending) - maxPendingTrades; over > 0 {
			s.pending = s.pending[over:]
		}
		s.mu.Unlock()
		return fmt.Errorf("trade_service: insert batch: %w", err)
	}

	s.logger.DebugContext(ctx, "trade_service: inserted trades", slog.Int("count", len(batch)))
	return nil
}

// Pending returns the number of queued trades.
func (s *TradeService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// RunFlush calls Flush every interval until ctx is cancelled, with a final
// flush on the way out.
func (s *TradeService) RunFlush(ctx context.Context, interval time.Duration) error {
	if s.trades == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if err := s.Flush(flushCtx); err != nil {
				s.logger.Warn("trade_service: final flush failed", slog.String("error", err.Error()))
			}
			cancel()
			return ctx.Err()
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.metrics.SideEffectFailed("trade_store")
				s.logger.WarnContext(ctx, "trade_service: flush failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Prime seeds the recent-trades cache from the local feeds. Markets that
// already have cached trades are left alone.
func (s *TradeService) Prime(ctx context.Context, marketIDs []string) error {
	for _, id := range marketIDs {
		f, err := s.feeds.Feed(id)
		if err != nil {
			return fmt.Errorf("trade_service: prime %q: %w", id, err)
		}
		_, err = s.cache.RecentTrades(ctx, id, 1)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("trade_service: prime %q: %w", id, err)
		}
		trades := f.Trades()
		// Oldest first so the newest ends up at the head.
		for i := len(trades) - 1; i >= 0; i-- {
			if err := s.cache.PushTrade(ctx, trades[i], f.Capacity()); err != nil {
				return fmt.Errorf("trade_service: prime %q: %w", id, err)
			}
		}
	}
	return nil
}

// Recent returns the visible trade list of a market, newest first. The
// cached list wins; the local feed is the fallback. Time labels and the new
// highlight are recomputed at read time.
func (s *TradeService) Recent(ctx context.Context, marketID string) ([]domain.Trade, error) {
	f, err := s.feeds.Feed(marketID)
	if err != nil {
		return nil, fmt.Errorf("trade_service: recent %q: %w", marketID, err)
	}

	cached, err := s.cache.RecentTrades(ctx, marketID, f.Capacity())
	if err == nil {
		now := s.now()
		for i := range cached {
			age := now.Sub(cached[i].CreatedAt)
			cached[i].TimeLabel = sim.RelativeTime(age)
			cached[i].IsNew = age >= 0 && age < sim.NewTradeHighlight
		}
		return cached, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "trade_service: cache read failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}
	return f.Trades(), nil
}

func (s *TradeService) capacity(marketID string) int {
	if f, err := s.feeds.Feed(marketID); err == nil {
		return f.Capacity()
	}
	return sim.DefaultFeedCapacity
}

// History returns persisted trades for a market. It reports ErrNotFound
// when no store is configured.
func (s *TradeService) History(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Trade, error) {
	if s.trades == nil {
		return nil, fmt.Errorf("trade_service: history: %w", domain.ErrNotFound)
	}
	trades, err := s.trades.ListByMarket(ctx, marketID, opts)
	if err != nil {
		return nil, fmt.Errorf("trade_service: history %q: %w", marketID, err)
	}
	return trades, nil
}

// TapeEntry is one decoded trade from the trade tape stream.
type TapeEntry struct {
	StreamID string       `json:"stream_id"`
	Trade    domain.Trade `json:"trade"`
}

// Tape reads up to count trades from the tape stream after lastID.
func (s *TradeService) Tape(ctx context.Context, lastID string, count int) ([]TapeEntry, error) {
	msgs, err := s.bus.StreamRead(ctx, domain.StreamTradeTape, lastID, count)
	if err != nil {
		return nil, fmt.Errorf("trade_service: read tape: %w", err)
	}
	out := make([]TapeEntry, 0, len(msgs))
	for _, m := range msgs {
		var evt Event
		if err := json.Unmarshal(m.Payload, &evt); err != nil {
			s.logger.WarnContext(ctx, "trade_service: bad tape entry",
				slog.String("stream_id", m.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		var t domain.Trade
		if err := json.Unmarshal(evt.Data, &t); err != nil {
			continue
		}
		out = append(out, TapeEntry{StreamID: m.ID, Trade: t})
	}
	return out, nil
}
