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

// MarketService mirrors simulated markets into the caches, the bus and,
// when configured, PostgreSQL. Reads go cache first and fall back to the
// local simulation, so nodes that are not driving the simulation still see
// the leader's prices.
type MarketService struct {
	local   *sim.MarketStore
	store   domain.MarketStore // nil outside full mode
	cache   domain.MarketCache
	prices  domain.PriceCache
	bus     domain.SignalBus
	metrics *metrics.Metrics
	now     func() time.Time
	logger  *slog.Logger

	// flashes holds the current up/down flash per market, fed by local
	// ticks and, on followers, by the leader's bus events.
	mu      sync.RWMutex
	flashes map[string]domain.Flash
}

// NewMarketService creates a MarketService. store may be nil.
func NewMarketService(
	local *sim.MarketStore,
	store domain.MarketStore,
	cache domain.MarketCache,
	prices domain.PriceCache,
	bus domain.SignalBus,
	m *metrics.Metrics,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		local:   local,
		store:   store,
		cache:   cache,
		prices:  prices,
		bus:     bus,
		metrics: m,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "market_service")),
		flashes: make(map[string]domain.Flash),
	}
}

// Prime writes every local market into the caches.
func (s *MarketService) Prime(ctx context.Context) error {
	markets := s.local.List()
	for _, m := range markets {
		if err := s.cache.Set(ctx, m); err != nil {
			return fmt.Errorf("market_service: prime %q: %w", m.ID, err)
		}
		if err := s.prices.SetPrice(ctx, m.ID, m.LastPrice, s.now()); err != nil {
			return fmt.Errorf("market_service: prime price %q: %w", m.ID, err)
		}
	}
	s.logger.InfoContext(ctx, "market_service: primed caches", slog.Int("count", len(markets)))
	return nil
}

// HandleTick caches the markets changed by one live update and publishes
// them on the markets channel. Failures are logged and skipped.
func (s *MarketService) HandleTick(ctx context.Context, live []domain.LiveMarket) {
	s.metrics.Tick(len(live))
	if len(live) == 0 {
		return
	}

	s.applyFlashes(live)
	now := s.now()
	for _, lm := range live {
		if err := s.cache.Set(ctx, lm.Market); err != nil {
			s.metrics.SideEffectFailed("market_cache")
			s.logger.WarnContext(ctx, "market_service: cache set failed",
				slog.String("market_id", lm.ID),
				slog.String("error", err.Error()),
			)
		}
		if err := s.prices.SetPrice(ctx, lm.ID, lm.LastPrice, now); err != nil {
			s.metrics.SideEffectFailed("price_cache")
			s.logger.WarnContext(ctx, "market_service: price set failed",
				slog.String("market_id", lm.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	payload, err := encodeEvent(EventMarkets, "", now, live)
	if err != nil {
		s.logger.ErrorContext(ctx, "market_service: encode tick", slog.String("error", err.Error()))
		return
	}
	publish(ctx, s.bus, s.metrics, s.logger, domain.ChannelMarkets, payload)

	s.logger.DebugContext(ctx, "market_service: tick", slog.Int("updated", len(live)))
}

// HandleFlashCleared drops a market's flash and announces the reset on the
// markets channel.
func (s *MarketService) HandleFlashCleared(ctx context.Context, lm domain.LiveMarket) {
	lm.Flash = domain.FlashNone
	s.applyFlashes([]domain.LiveMarket{lm})

	payload, err := encodeEvent(EventMarketFlash, lm.ID, s.now(), lm)
	if err != nil {
		s.logger.ErrorContext(ctx, "market_service: encode flash reset", slog.String("error", err.Error()))
		return
	}
	publish(ctx, s.bus, s.metrics, s.logger, domain.ChannelMarkets, payload)
}

// ClearFlashes resets every flash this node knows about. The simulation
// calls it when it stops driving, since pending resets die with its timers.
func (s *MarketService) ClearFlashes(ctx context.Context) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.flashes))
	for id := range s.flashes {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		m, err := s.local.Get(id)
		if err != nil {
			continue
		}
		s.HandleFlashCleared(ctx, domain.LiveMarket{Market: m})
	}
}

// Follow applies flash changes published on the markets channel until ctx
// is cancelled, so nodes that do not drive the simulation serve the same
// live projection as the one that does.
func (s *MarketService) Follow(ctx context.Context) error {
	ch, err := s.bus.Subscribe(ctx, domain.ChannelMarkets)
	if err != nil {
		return fmt.Errorf("market_service: subscribe: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-ch:
			if !ok {
				return ctx.Err()
			}
			if err := s.applyEvent(payload); err != nil {
				s.logger.WarnContext(ctx, "market_service: bad markets event", slog.String("error", err.Error()))
			}
		}
	}
}

func (s *MarketService) applyEvent(payload []byte) error {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return err
	}
	switch evt.Event {
	case EventMarkets:
		var live []domain.LiveMarket
		if err := json.Unmarshal(evt.Data, &live); err != nil {
			return err
		}
		s.applyFlashes(live)
	case EventMarketFlash:
		var lm domain.LiveMarket
		if err := json.Unmarshal(evt.Data, &lm); err != nil {
			return err
		}
		s.applyFlashes([]domain.LiveMarket{lm})
	}
	return nil
}

func (s *MarketService) applyFlashes(live []domain.LiveMarket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, lm := range live {
		if lm.Flash == domain.FlashNone {
			delete(s.flashes, lm.ID)
			continue
		}
		s.flashes[lm.ID] = lm.Flash
	}
}

// LiveMarkets is ListMarkets with each market's current flash attached.
func (s *MarketService) LiveMarkets(ctx context.Context, status domain.MarketStatus) ([]domain.LiveMarket, error) {
	markets, err := s.ListMarkets(ctx, status)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LiveMarket, len(markets))
	for i, m := range markets {
		out[i] = domain.LiveMarket{Market: m, Flash: s.flashes[m.ID]}
	}
	return out, nil
}

// GetMarket retrieves a market by ID, checking the cache first and falling
// back to the local simulation on a miss.
func (s *MarketService) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	m, err := s.cache.Get(ctx, id)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "market_service: cache get failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
	}

	m, err = s.local.Get(id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get %q: %w", id, err)
	}

	if cacheErr := s.cache.Set(ctx, m); cacheErr != nil {
		s.logger.WarnContext(ctx, "market_service: cache set failed",
			slog.String("market_id", id),
			slog.String("error", cacheErr.Error()),
		)
	}
	return m, nil
}

// ListMarkets returns every market in seed order, optionally filtered by
// status. An empty status lists all.
func (s *MarketService) ListMarkets(ctx context.Context, status domain.MarketStatus) ([]domain.Market, error) {
	local := s.local.List()
	out := make([]domain.Market, 0, len(local))
	for _, lm := range local {
		m, err := s.GetMarket(ctx, lm.ID)
		if err != nil {
			return nil, err
		}
		if status != "" && m.Status != status {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Summary aggregates volume over the current market list.
func (s *MarketService) Summary(ctx context.Context) (domain.VolumeSummary, error) {
	markets, err := s.ListMarkets(ctx, "")
	if err != nil {
		return domain.VolumeSummary{}, err
	}
	sum := domain.VolumeSummary{Markets: len(markets)}
	for _, m := range markets {
		sum.TotalVolume += m.TotalVolume
		sum.Volume24h += m.Volume24h
	}
	return sum, nil
}

// Persist upserts the current local snapshot into PostgreSQL. It is a no-op
// without a store.
func (s *MarketService) Persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	markets := s.local.List()
	if err := s.store.UpsertBatch(ctx, markets); err != nil {
		return fmt.Errorf("market_service: persist: %w", err)
	}
	s.logger.DebugContext(ctx, "market_service: persisted markets", slog.Int("count", len(markets)))
	return nil
}

// RunPersist calls Persist every interval until ctx is cancelled, with a
// final write on the way out.
func (s *MarketService) RunPersist(ctx context.Context, interval time.Duration) error {
	if s.store == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if err := s.Persist(flushCtx); err != nil {
				s.logger.Warn("market_service: final persist failed", slog.String("error", err.Error()))
			}
			cancel()
			return ctx.Err()
		case <-ticker.C:
			if err := s.Persist(ctx); err != nil {
				s.metrics.SideEffectFailed("market_store")
				s.logger.WarnContext(ctx, "market_service: persist failed", slog.String("error", err.Error()))
			}
		}
	}
}
