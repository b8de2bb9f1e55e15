package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SlugMacro/wm-fe-sub000/internal/server"
	"github.com/SlugMacro/wm-fe-sub000/internal/server/handler"
	"github.com/SlugMacro/wm-fe-sub000/internal/server/ws"
	"github.com/SlugMacro/wm-fe-sub000/internal/service"
)

// StandaloneMode drives the simulation in-process with in-memory caches and
// serves the API.
func (a *App) StandaloneMode(ctx context.Context, rt *runtime) error {
	a.logger.InfoContext(ctx, "app: starting standalone mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, rt, nil)
	a.refreshIndices(ctx, g, rt)

	rt.startDriving(ctx)
	g.Go(func() error {
		<-ctx.Done()
		rt.stopDriving()
		return ctx.Err()
	})

	return g.Wait()
}

// ClusterMode shares caches and the bus through Redis. One node per cluster
// wins the simulation lock and drives; the rest serve reads from Redis.
func (a *App) ClusterMode(ctx context.Context, rt *runtime) error {
	a.logger.InfoContext(ctx, "app: starting cluster mode")
	return a.runElected(ctx, rt)
}

// FullMode is cluster mode plus PostgreSQL persistence of market snapshots
// and the trade tape, and periodic archival of old trades to S3. The
// persistence loops run only on the elected node.
func (a *App) FullMode(ctx context.Context, rt *runtime) error {
	a.logger.InfoContext(ctx, "app: starting full mode")

	persistEvery := a.cfg.Simulation.PersistInterval.Duration
	rt.loops = append(rt.loops,
		func(ctx context.Context) error { return rt.markets.RunPersist(ctx, persistEvery) },
		func(ctx context.Context) error { return rt.trades.RunFlush(ctx, persistEvery) },
	)
	if rt.deps.Archiver != nil {
		archive := service.NewArchiveService(rt.deps.Archiver, a.cfg.S3.Retention.Duration, rt.metrics, a.logger)
		every := a.cfg.S3.ArchiveInterval.Duration
		rt.loops = append(rt.loops, func(ctx context.Context) error { return archive.Run(ctx, every) })
	}

	return a.runElected(ctx, rt)
}

func (a *App) runElected(ctx context.Context, rt *runtime) error {
	g, ctx := errgroup.WithContext(ctx)

	leader := service.NewLeader(
		rt.deps.LockManager,
		service.SimulationLockKey,
		a.cfg.Redis.LockTTL.Duration,
		func() { rt.startDriving(ctx) },
		rt.stopDriving,
		a.logger,
	)
	g.Go(func() error {
		return leader.Run(ctx)
	})
	g.Go(func() error {
		if err := rt.markets.Follow(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.WarnContext(ctx, "app: market flash follower stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	a.startHTTPServer(ctx, g, rt, leader)
	a.refreshIndices(ctx, g, rt)

	return g.Wait()
}

// refreshIndices fetches the market indices once. Failures keep the
// defaults.
func (a *App) refreshIndices(ctx context.Context, g *errgroup.Group, rt *runtime) {
	if !a.cfg.Index.Enabled {
		return
	}
	g.Go(func() error {
		rt.indices.Refresh(ctx)
		return nil
	})
}

// startHTTPServer registers the API and the WebSocket hub and runs them
// until ctx is cancelled. leader is nil when this node always drives.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, rt *runtime, leader *service.Leader) {
	if !a.cfg.Server.Enabled {
		return
	}

	var (
		leadership handler.Leadership
		leading    func() bool
	)
	if leader != nil {
		leadership = leader
		leading = leader.Leading
	}

	hub := ws.NewHub(rt.deps.SignalBus, rt.metrics, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: rt.startedAt,
		Leading:   leading,
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(rt.deps.Pingers, a.logger),
		Status:    handler.NewStatusHandler(a.cfg.Mode, rt.deps.SessionID.String(), rt.startedAt, rt.sim, leadership),
		Markets:   handler.NewMarketHandler(rt.markets, a.logger),
		OrderBook: handler.NewOrderBookHandler(rt.books, rt.wallet, a.logger),
		Trades:    handler.NewTradeHandler(rt.trades, a.logger),
		Dashboard: handler.NewDashboardHandler(rt.sim.Dashboard(), a.logger),
		Indices:   handler.NewIndexHandler(rt.indices),
		Wallet:    handler.NewWalletHandler(rt.wallet, a.logger),
		Archives:  handler.NewArchiveHandler(rt.deps.Archiver, a.logger),
	}
	if rt.metrics != nil {
		handlers.Metrics = rt.metrics.Handler()
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, rt.deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.InfoContext(ctx, "app: HTTP server shutting down", slog.Int("port", a.cfg.Server.Port))
		return srv.Shutdown(shutCtx)
	})
}
