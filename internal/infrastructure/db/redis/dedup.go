package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cometsur/checkin-sync/internal/core/ports"
	"github.com/cometsur/checkin-sync/internal/infrastructure/cache"
)

// DedupChecker suppresses repeated scans using short-lived Redis keys, so two
// desks sharing one Redis also share the window.
// Key format: <prefix>dedup:<attendee_id>:<slot>
type DedupChecker struct {
	client *redis.Client
	prefix string
}

var _ ports.ScanDeduper = (*DedupChecker)(nil)

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client *redis.Client, prefix string) *DedupChecker {
	return &DedupChecker{client: client, prefix: prefix}
}

// IsDuplicate reports whether this attendee and slot were scanned inside the
// current window.
func (d *DedupChecker) IsDuplicate(ctx context.Context, attendeeID string, slot int) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(attendeeID, slot)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records the scan; the key expires after window.
func (d *DedupChecker) Mark(ctx context.Context, attendeeID string, slot int, window time.Duration) error {
	return d.client.Set(ctx, d.key(attendeeID, slot), "1", window).Err()
}

// Forget deletes the mark, e.g. after the server rejected the scan.
func (d *DedupChecker) Forget(ctx context.Context, attendeeID string, slot int) error {
	if err := d.client.Del(ctx, d.key(attendeeID, slot)).Err(); err != nil {
		return fmt.Errorf("dedup forget: %w", err)
	}
	return nil
}

func (d *DedupChecker) key(attendeeID string, slot int) string {
	return d.prefix + cache.DedupKey(attendeeID, slot)
}
