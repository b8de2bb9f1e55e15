package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/clock"
	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
	"github.com/SlugMacro/wm-fe-sub000/internal/index"
	"github.com/SlugMacro/wm-fe-sub000/internal/metrics"
	"github.com/SlugMacro/wm-fe-sub000/internal/service"
	"github.com/SlugMacro/wm-fe-sub000/internal/sim"
	"github.com/SlugMacro/wm-fe-sub000/internal/wallet"
)

// runtime is the simulation plus the services fed by its hooks. Only the
// node driving the simulation starts it; every node serves reads.
type runtime struct {
	deps      *Dependencies
	metrics   *metrics.Metrics
	sim       *sim.Simulator
	markets   *service.MarketService
	books     *service.BookService
	trades    *service.TradeService
	wallet    *wallet.Mock
	indices   *index.Client
	startedAt time.Time
	logger    *slog.Logger

	// loops run for as long as this node drives the simulation.
	loops []func(ctx context.Context) error

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (a *App) buildRuntime(ctx context.Context, deps *Dependencies) *runtime {
	cfg := a.cfg
	rt := &runtime{
		deps:      deps,
		startedAt: time.Now().UTC(),
		logger:    a.logger,
	}
	if cfg.Metrics.Enabled {
		rt.metrics = metrics.New()
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	// Hooks fire only after Start, by which time the services exist.
	hookCtx := context.WithoutCancel(ctx)
	hooks := sim.Hooks{
		OnMarkets:            func(live []domain.LiveMarket) { rt.markets.HandleTick(hookCtx, live) },
		OnMarketFlashCleared: func(lm domain.LiveMarket) { rt.markets.HandleFlashCleared(hookCtx, lm) },
		OnBook:               func(evt sim.BookEvent) { rt.books.HandleBookEvent(hookCtx, evt) },
		OnTrade:              func(t domain.Trade) { rt.trades.HandleTrade(hookCtx, t) },
	}
	rt.sim = sim.New(sim.Options{
		Feed: sim.FeedOptions{
			Capacity: cfg.Simulation.FeedCapacity,
			Interval: cfg.Simulation.TradeInterval.Duration,
			Backfill: cfg.Simulation.Backfill,
		},
		CompactMarkets:  cfg.Simulation.CompactMarkets,
		CompactInterval: cfg.Simulation.CompactTradeInterval.Duration,
	}, clock.New(), sim.NewRand(seed), hooks, a.logger)

	rt.markets = service.NewMarketService(rt.sim.Store(), deps.MarketStore, deps.MarketCache, deps.PriceCache, deps.SignalBus, rt.metrics, a.logger)
	rt.books = service.NewBookService(rt.sim, deps.BookCache, deps.SignalBus, rt.metrics, a.logger)
	rt.trades = service.NewTradeService(rt.sim, deps.TradeCache, deps.TradeStore, deps.SignalBus, rt.metrics, a.logger)

	rt.wallet = wallet.NewMock(cfg.Wallet.Balances)
	if cfg.Wallet.Address != "" {
		if addr, err := rt.wallet.Connect(cfg.Wallet.Address); err != nil {
			a.logger.WarnContext(ctx, "app: wallet not connected", slog.String("error", err.Error()))
		} else {
			a.logger.InfoContext(ctx, "app: wallet connected", slog.String("address", addr))
		}
	}

	rt.indices = index.New(index.Config{
		FearGreedURL: cfg.Index.FearGreedURL,
		DominanceURL: cfg.Index.DominanceURL,
		Timeout:      cfg.Index.Timeout.Duration,
	}, a.logger, rt.metrics.IndexFailure)

	a.logger.InfoContext(ctx, "app: simulation built",
		slog.String("session_id", deps.SessionID.String()),
		slog.Uint64("seed", seed),
		slog.Int("books", len(rt.sim.MarketIDs())),
	)
	return rt
}

// startDriving primes the caches, starts the simulation and launches the
// driver-only loops. It is a no-op while already driving.
func (rt *runtime) startDriving(ctx context.Context) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.cancel != nil {
		return
	}

	if err := rt.markets.Prime(ctx); err != nil {
		rt.logger.WarnContext(ctx, "app: prime market cache failed", slog.String("error", err.Error()))
	}
	if err := rt.books.Prime(ctx, rt.sim.MarketIDs()); err != nil {
		rt.logger.WarnContext(ctx, "app: prime book cache failed", slog.String("error", err.Error()))
	}
	if err := rt.trades.Prime(ctx, rt.sim.MarketIDs()); err != nil {
		rt.logger.WarnContext(ctx, "app: prime trade cache failed", slog.String("error", err.Error()))
	}
	rt.sim.Start()

	loopCtx, cancel := context.WithCancel(ctx)
	rt.cancel = cancel
	for _, loop := range rt.loops {
		rt.wg.Add(1)
		go func() {
			defer rt.wg.Done()
			if err := loop(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
				rt.logger.Warn("app: driver loop exited", slog.String("error", err.Error()))
			}
		}()
	}
}

// stopDriving stops the simulation and waits for the driver loops, which
// flush what they hold on the way out.
func (rt *runtime) stopDriving() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.cancel == nil {
		return
	}
	rt.sim.Stop()
	rt.cancel()
	rt.wg.Wait()
	rt.cancel = nil

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rt.markets.ClearFlashes(ctx)
}
