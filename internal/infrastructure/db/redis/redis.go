package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultTimeout = 5 * time.Second

// Config describes the shared Redis used by every desk of one event.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key, so several events can share a server.
	Prefix  string
	Timeout time.Duration
}

// Backend bundles the Redis-backed cache store and scan deduper over one
// client.
type Backend struct {
	Client *redis.Client
	Store  *Store
	Dedup  *DedupChecker
}

// Open connects to Redis and builds the cache store and deduper on top of the
// connection. The caller must Close the backend.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*Backend, error) {
	client, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Backend{
		Client: client,
		Store:  NewStore(client, cfg.Prefix, log),
		Dedup:  NewDedupChecker(client, cfg.Prefix),
	}, nil
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	return b.Client.Close()
}

func connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}
