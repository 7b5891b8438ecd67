package ports

import (
	"context"
	"time"
)

// CacheChange is broadcast to subscribers after every write or delete.
type CacheChange struct {
	Key     string
	Value   string
	Deleted bool
}

// CacheStore is the persistent key/value store that owns the session and the
// roster. Values are text. Read never fails: a missing or unreadable key is
// reported as absent.
type CacheStore interface {
	Read(ctx context.Context, key string) (string, bool)
	Write(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	// Subscribe registers fn for changes to key, or to every key when key
	// is empty. The returned func removes the subscription.
	Subscribe(key string, fn func(CacheChange)) (unsubscribe func())
}

// ScanDeduper suppresses repeated scans of the same attendee and slot within
// a short window.
type ScanDeduper interface {
	IsDuplicate(ctx context.Context, attendeeID string, slot int) (bool, error)
	Mark(ctx context.Context, attendeeID string, slot int, window time.Duration) error
	// Forget clears a mark so the next scan of the slot is processed.
	Forget(ctx context.Context, attendeeID string, slot int) error
}
