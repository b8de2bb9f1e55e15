package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PREMARKET_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after
// Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PREMARKET_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty).
func applyEnvOverrides(cfg *Config) {
	// ── Simulation ──
	setUint64(&cfg.Simulation.Seed, "PREMARKET_SIMULATION_SEED")
	setInt(&cfg.Simulation.FeedCapacity, "PREMARKET_SIMULATION_FEED_CAPACITY")
	setDuration(&cfg.Simulation.TradeInterval, "PREMARKET_SIMULATION_TRADE_INTERVAL")
	setDuration(&cfg.Simulation.CompactTradeInterval, "PREMARKET_SIMULATION_COMPACT_TRADE_INTERVAL")
	setInt(&cfg.Simulation.Backfill, "PREMARKET_SIMULATION_BACKFILL")
	setStringSlice(&cfg.Simulation.CompactMarkets, "PREMARKET_SIMULATION_COMPACT_MARKETS")
	setDuration(&cfg.Simulation.PersistInterval, "PREMARKET_SIMULATION_PERSIST_INTERVAL")

	// ── Index ──
	setBool(&cfg.Index.Enabled, "PREMARKET_INDEX_ENABLED")
	setStr(&cfg.Index.FearGreedURL, "PREMARKET_INDEX_FEAR_GREED_URL")
	setStr(&cfg.Index.DominanceURL, "PREMARKET_INDEX_DOMINANCE_URL")
	setDuration(&cfg.Index.Timeout, "PREMARKET_INDEX_TIMEOUT")

	// ── Wallet ──
	setStr(&cfg.Wallet.Address, "PREMARKET_WALLET_ADDRESS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "PREMARKET_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PREMARKET_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PREMARKET_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PREMARKET_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PREMARKET_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PREMARKET_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "PREMARKET_REDIS_KEY_PREFIX")
	setDuration(&cfg.Redis.LockTTL, "PREMARKET_REDIS_LOCK_TTL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "DATABASE_URL")
	setStr(&cfg.Postgres.DSN, "PREMARKET_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "PREMARKET_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "PREMARKET_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "PREMARKET_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "PREMARKET_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "PREMARKET_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "PREMARKET_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "PREMARKET_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "PREMARKET_POSTGRES_POOL_MIN_CONNS")
	setDuration(&cfg.Postgres.ConnectTimeout, "PREMARKET_POSTGRES_CONNECT_TIMEOUT")
	setBool(&cfg.Postgres.RunMigrations, "PREMARKET_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "PREMARKET_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PREMARKET_S3_REGION")
	setStr(&cfg.S3.Bucket, "PREMARKET_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PREMARKET_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PREMARKET_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PREMARKET_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PREMARKET_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.Prefix, "PREMARKET_S3_PREFIX")
	setDuration(&cfg.S3.ArchiveInterval, "PREMARKET_S3_ARCHIVE_INTERVAL")
	setDuration(&cfg.S3.Retention, "PREMARKET_S3_RETENTION")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "PREMARKET_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "PREMARKET_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "PREMARKET_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "PREMARKET_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "PREMARKET_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "PREMARKET_SERVER_RATE_WINDOW")

	// ── Logging / metrics ──
	setStr(&cfg.Logging.File, "PREMARKET_LOGGING_FILE")
	setBool(&cfg.Metrics.Enabled, "PREMARKET_METRICS_ENABLED")

	// ── Top-level ──
	setStr(&cfg.Mode, "PREMARKET_MODE")
	setStr(&cfg.LogLevel, "PREMARKET_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
