package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Config locates the database holding the desk's check-in journal.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Conn is an open connection to the journal database.
type Conn struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// Open connects and pings the server. The caller must Close the connection.
func Open(ctx context.Context, cfg Config) (*Conn, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("checkin-sync").
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Conn{client: client, db: client.Database(cfg.Database), timeout: timeout}, nil
}

func (c *Conn) Database() *mongo.Database { return c.db }

// Journal returns the check-in journal stored in this database, creating its
// indexes first.
func (c *Conn) Journal(ctx context.Context) (*CheckinJournal, error) {
	j := NewCheckinJournal(c.db)
	if err := j.EnsureIndexes(ctx); err != nil {
		return j, fmt.Errorf("journal indexes: %w", err)
	}
	return j, nil
}

// Close gives in-flight writes up to the connect timeout to finish.
func (c *Conn) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.client.Disconnect(ctx)
}
