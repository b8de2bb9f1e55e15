package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	s3blob "github.com/SlugMacro/wm-fe-sub000/internal/blob/s3"
	"github.com/SlugMacro/wm-fe-sub000/internal/cache/memory"
	"github.com/SlugMacro/wm-fe-sub000/internal/cache/redis"
	"github.com/SlugMacro/wm-fe-sub000/internal/config"
	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
	"github.com/SlugMacro/wm-fe-sub000/internal/server/handler"
	"github.com/SlugMacro/wm-fe-sub000/internal/store/postgres"
)

// Dependencies bundles the infrastructure the run modes build on. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// SessionID tags every persisted trade with the process that emitted it.
	SessionID uuid.UUID

	// Stores; nil outside full mode.
	MarketStore domain.MarketStore
	TradeStore  domain.TradeStore

	// Caches and messaging; in-memory in standalone mode.
	PriceCache  domain.PriceCache
	BookCache   domain.OrderbookCache
	MarketCache domain.MarketCache
	TradeCache  domain.TradeCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Archiver is nil outside full mode.
	Archiver domain.Archiver

	// Health probes keyed by dependency name.
	Pingers map[string]handler.Pinger
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		SessionID: uuid.New(),
		Pingers:   make(map[string]handler.Pinger),
	}

	// --- Redis (cluster and full) or in-process stand-ins ---
	if cfg.NeedsRedis() {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.PriceCache = redis.NewPriceCache(redisClient)
		deps.BookCache = redis.NewOrderbookCache(redisClient)
		deps.MarketCache = redis.NewMarketCache(redisClient)
		deps.TradeCache = redis.NewTradeCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.Pingers["redis"] = redisClient
	} else {
		deps.PriceCache = memory.NewPriceCache()
		deps.BookCache = memory.NewOrderbookCache()
		deps.MarketCache = memory.NewMarketCache()
		deps.TradeCache = memory.NewTradeCache()
		deps.RateLimiter = memory.NewRateLimiter()
		deps.LockManager = memory.NewLockManager()
		deps.SignalBus = memory.NewSignalBus()
	}

	if !cfg.NeedsStorage() {
		return deps, cleanup, nil
	}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:            cfg.Postgres.DSN,
		Host:           cfg.Postgres.Host,
		Port:           cfg.Postgres.Port,
		Database:       cfg.Postgres.Database,
		User:           cfg.Postgres.User,
		Password:       cfg.Postgres.Password,
		SSLMode:        cfg.Postgres.SSLMode,
		MaxConns:       cfg.Postgres.PoolMaxConns,
		MinConns:       cfg.Postgres.PoolMinConns,
		ConnectTimeout: cfg.Postgres.ConnectTimeout.Duration,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)
	deps.Pingers["postgres"] = pgClient

	if cfg.Postgres.RunMigrations {
		applied, err := pgClient.RunMigrations(ctx)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
		if len(applied) > 0 {
			logger.InfoContext(ctx, "wire: applied migrations",
				slog.String("files", strings.Join(applied, ",")),
			)
		}
	}

	pool := pgClient.Pool()
	deps.MarketStore = postgres.NewMarketStore(pool)
	tradeStore := postgres.NewTradeStore(pool, deps.SessionID)
	deps.TradeStore = tradeStore

	// --- S3 trade tape archive ---
	s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
		Endpoint:       cfg.S3.Endpoint,
		Region:         cfg.S3.Region,
		Bucket:         cfg.S3.Bucket,
		AccessKey:      cfg.S3.AccessKey,
		SecretKey:      cfg.S3.SecretKey,
		UseSSL:         cfg.S3.UseSSL,
		ForcePathStyle: cfg.S3.ForcePathStyle,
		Prefix:         cfg.S3.Prefix,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: s3: %w", err)
	}

	deps.Archiver = s3blob.NewArchiver(
		s3blob.NewWriter(s3Client),
		s3blob.NewReader(s3Client),
		tradeStore,
		s3Client.Prefix(),
		logger,
	)

	return deps, cleanup, nil
}
