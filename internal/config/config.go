// Package config defines the top-level configuration for premarketd and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by PREMARKET_* environment variables.
type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Index      IndexConfig      `toml:"index"`
	Wallet     WalletConfig     `toml:"wallet"`
	Redis      RedisConfig      `toml:"redis"`
	Postgres   PostgresConfig   `toml:"postgres"`
	S3         S3Config         `toml:"s3"`
	Server     ServerConfig     `toml:"server"`
	Logging    LoggingConfig    `toml:"logging"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// SimulationConfig tunes the market simulation.
type SimulationConfig struct {
	// Seed fixes the random source; 0 seeds from the wall clock.
	Seed                 uint64   `toml:"seed"`
	FeedCapacity         int      `toml:"feed_capacity"`
	TradeInterval        duration `toml:"trade_interval"`
	CompactTradeInterval duration `toml:"compact_trade_interval"`
	// Backfill is the number of historical trades seeded per feed; negative
	// disables it.
	Backfill       int      `toml:"backfill"`
	CompactMarkets []string `toml:"compact_markets"`
	// PersistInterval is how often market snapshots are written to PostgreSQL
	// in full mode.
	PersistInterval duration `toml:"persist_interval"`
}

// IndexConfig holds the market index endpoints.
type IndexConfig struct {
	Enabled      bool     `toml:"enabled"`
	FearGreedURL string   `toml:"fear_greed_url"`
	DominanceURL string   `toml:"dominance_url"`
	Timeout      duration `toml:"timeout"`
}

// WalletConfig seeds the mocked wallet.
type WalletConfig struct {
	// Address connects the wallet at startup when set.
	Address  string             `toml:"address"`
	Balances map[string]float64 `toml:"balances"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	KeyPrefix  string   `toml:"key_prefix"`
	LockTTL    duration `toml:"lock_ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN            string   `toml:"dsn"`
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	Database       string   `toml:"database"`
	User           string   `toml:"user"`
	Password       string   `toml:"password"`
	SSLMode        string   `toml:"ssl_mode"`
	PoolMaxConns   int      `toml:"pool_max_conns"`
	PoolMinConns   int      `toml:"pool_min_conns"`
	ConnectTimeout duration `toml:"connect_timeout"`
	RunMigrations  bool     `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for the trade tape
// archive.
type S3Config struct {
	Endpoint        string   `toml:"endpoint"`
	Region          string   `toml:"region"`
	Bucket          string   `toml:"bucket"`
	AccessKey       string   `toml:"access_key"`
	SecretKey       string   `toml:"secret_key"`
	UseSSL          bool     `toml:"use_ssl"`
	ForcePathStyle  bool     `toml:"force_path_style"`
	Prefix          string   `toml:"prefix"`
	ArchiveInterval duration `toml:"archive_interval"`
	// Retention is how long trades stay in PostgreSQL before archival.
	Retention duration `toml:"retention"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey guards /api/* when set.
	APIKey     string   `toml:"api_key"`
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// LoggingConfig enables the rotating file sink.
type LoggingConfig struct {
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Simulation: SimulationConfig{
			FeedCapacity:         12,
			TradeInterval:        duration{45 * time.Second},
			CompactTradeInterval: duration{60 * time.Second},
			Backfill:             8,
			PersistInterval:      duration{30 * time.Second},
		},
		Index: IndexConfig{
			Enabled:      true,
			FearGreedURL: "https://api.alternative.me/fng/?limit=1",
			DominanceURL: "https://api.coingecko.com/api/v3/global",
			Timeout:      duration{10 * time.Second},
		},
		Wallet: WalletConfig{
			Balances: map[string]float64{
				"USDC": 2500,
				"SOL":  12.5,
				"ETH":  0.8,
				"SUI":  400,
			},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
			KeyPrefix:  "premarket:",
			LockTTL:    duration{15 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:           "localhost",
			Port:           5432,
			Database:       "premarket",
			User:           "postgres",
			SSLMode:        "disable",
			PoolMaxConns:   10,
			PoolMinConns:   2,
			ConnectTimeout: duration{10 * time.Second},
			RunMigrations:  true,
		},
		S3: S3Config{
			Endpoint:        "http://localhost:9000",
			Region:          "us-east-1",
			Bucket:          "premarket-archive",
			UseSSL:          false,
			ForcePathStyle:  true,
			ArchiveInterval: duration{time.Hour},
			Retention:       duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Logging: LoggingConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Mode:     "standalone",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"standalone": true,
	"cluster":    true,
	"full":       true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// NeedsRedis reports whether the mode runs against Redis.
func (c *Config) NeedsRedis() bool {
	m := strings.ToLower(c.Mode)
	return m == "cluster" || m == "full"
}

// NeedsStorage reports whether the mode persists to PostgreSQL and S3.
func (c *Config) NeedsStorage() bool {
	return strings.ToLower(c.Mode) == "full"
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: standalone, cluster, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Simulation
	if c.Simulation.FeedCapacity < 1 {
		errs = append(errs, "simulation: feed_capacity must be >= 1")
	}
	if c.Simulation.TradeInterval.Duration <= 0 {
		errs = append(errs, "simulation: trade_interval must be > 0")
	}
	if c.Simulation.CompactTradeInterval.Duration <= 0 {
		errs = append(errs, "simulation: compact_trade_interval must be > 0")
	}

	// Index
	if c.Index.Enabled && c.Index.Timeout.Duration <= 0 {
		errs = append(errs, "index: timeout must be > 0 when enabled")
	}

	// Wallet
	for sym, bal := range c.Wallet.Balances {
		if bal < 0 {
			errs = append(errs, fmt.Sprintf("wallet: balance for %s must be >= 0", sym))
		}
	}

	// Redis
	if c.NeedsRedis() {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.LockTTL.Duration < time.Second {
			errs = append(errs, "redis: lock_ttl must be >= 1s")
		}
	}

	if c.NeedsStorage() {
		// Postgres
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
		if c.Simulation.PersistInterval.Duration <= 0 {
			errs = append(errs, "simulation: persist_interval must be > 0 in full mode")
		}

		// S3
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
		if c.S3.ArchiveInterval.Duration <= 0 {
			errs = append(errs, "s3: archive_interval must be > 0")
		}
		if c.S3.Retention.Duration <= 0 {
			errs = append(errs, "s3: retention must be > 0")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
