package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cometsur/checkin-sync/internal/core/ports"
	"github.com/cometsur/checkin-sync/internal/infrastructure/cache"
)

const changesChannel = "cache:changes"

// Store is a CacheStore that survives process restarts. Every write is
// published on a Redis channel so other processes sharing the same Redis see
// it, the way browser tabs see each other's storage events.
type Store struct {
	client   *redis.Client
	prefix   string
	instance string
	log      zerolog.Logger
	*cache.Broadcaster
}

var _ ports.CacheStore = (*Store)(nil)

type changeMessage struct {
	Origin  string `json:"origin"`
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// NewStore wraps client. Keys are stored as prefix+key.
func NewStore(client *redis.Client, prefix string, log zerolog.Logger) *Store {
	return &Store{
		client:      client,
		prefix:      prefix,
		instance:    uuid.NewString(),
		log:         log,
		Broadcaster: cache.NewBroadcaster(),
	}
}

// Read returns the value under key. Connectivity errors behave like a miss.
func (s *Store) Read(ctx context.Context, key string) (string, bool) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed, treating as absent")
		return "", false
	}
	return v, true
}

func (s *Store) Write(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("cache write %s: %w", key, err)
	}
	change := ports.CacheChange{Key: key, Value: value}
	s.Publish(change)
	s.announce(ctx, change)
	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	for _, k := range keys {
		change := ports.CacheChange{Key: k, Deleted: true}
		s.Publish(change)
		s.announce(ctx, change)
	}
	return nil
}

// Run relays changes made by other processes to local subscribers until ctx
// is cancelled.
func (s *Store) Run(ctx context.Context) error {
	sub := s.client.Subscribe(ctx, s.prefix+changesChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var cm changeMessage
			if err := json.Unmarshal([]byte(msg.Payload), &cm); err != nil {
				s.log.Warn().Err(err).Msg("ignoring malformed cache change")
				continue
			}
			if cm.Origin == s.instance {
				continue
			}
			s.Publish(ports.CacheChange{Key: cm.Key, Value: cm.Value, Deleted: cm.Deleted})
		}
	}
}

func (s *Store) announce(ctx context.Context, change ports.CacheChange) {
	payload, err := json.Marshal(changeMessage{
		Origin:  s.instance,
		Key:     change.Key,
		Value:   change.Value,
		Deleted: change.Deleted,
	})
	if err != nil {
		return
	}
	if err := s.client.Publish(ctx, s.prefix+changesChannel, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", change.Key).Msg("failed to announce cache change")
	}
}
