package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	API     APIConfig
	Sync    SyncConfig
	Checkin CheckinConfig
	Forum   ForumConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

// APIConfig points at the conference REST API.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:3000/api/"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=10s"`
}

type SyncConfig struct {
	SessionInitialDelay time.Duration `env:"SESSION_INITIAL_DELAY, default=2s"`
	SessionInterval     time.Duration `env:"SESSION_INTERVAL,      default=60s"`
	SessionTTL          time.Duration `env:"SESSION_TTL,           default=2h"`
	ChangeSignalWindow  time.Duration `env:"CHANGE_SIGNAL_WINDOW,  default=3s"`
	RosterInterval      time.Duration `env:"ROSTER_INTERVAL,       default=10s"`
}

type CheckinConfig struct {
	DedupWindow time.Duration `env:"SCAN_DEDUP_WINDOW, default=5s"`
	Workers     int           `env:"CHECKIN_WORKERS,   default=4"`
}

type ForumConfig struct {
	URL            string        `env:"FORUM_URL"`
	ConnectTimeout time.Duration `env:"FORUM_CONNECT_TIMEOUT, default=5s"`
}

// MongoConfig enables the check-in journal. An empty URI disables it.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=checkin_sync"`
}

// RedisConfig enables the shared cache. An empty address keeps the cache in
// process memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
	Prefix   string `env:"REDIS_PREFIX, default=checkin:"`
}

// IsDevelopment reports whether the agent runs with developer defaults such
// as pretty console logs.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through an arbitrary lookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if cfg.Checkin.Workers <= 0 {
		return nil, fmt.Errorf("CHECKIN_WORKERS must be positive, got %d", cfg.Checkin.Workers)
	}
	return &cfg, nil
}
