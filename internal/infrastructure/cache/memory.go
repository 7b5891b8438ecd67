package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cometsur/checkin-sync/internal/core/ports"
)

// MemoryStore is an in-process CacheStore. It is used when no Redis address
// is configured and throughout the tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
	*Broadcaster
}

var _ ports.CacheStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string), Broadcaster: NewBroadcaster()}
}

func (s *MemoryStore) Read(_ context.Context, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemoryStore) Write(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()

	s.Publish(ports.CacheChange{Key: key, Value: value})
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	removed := make([]string, 0, len(keys))
	s.mu.Lock()
	for _, k := range keys {
		if _, ok := s.data[k]; ok {
			delete(s.data, k)
			removed = append(removed, k)
		}
	}
	s.mu.Unlock()

	for _, k := range removed {
		s.Publish(ports.CacheChange{Key: k, Deleted: true})
	}
	return nil
}

// MemoryDeduper is the in-process ScanDeduper.
type MemoryDeduper struct {
	mu      sync.Mutex
	now     func() time.Time
	expires map[string]time.Time
}

var _ ports.ScanDeduper = (*MemoryDeduper)(nil)

func NewMemoryDeduper(now func() time.Time) *MemoryDeduper {
	if now == nil {
		now = time.Now
	}
	return &MemoryDeduper{now: now, expires: make(map[string]time.Time)}
}

func (d *MemoryDeduper) IsDuplicate(_ context.Context, attendeeID string, slot int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := DedupKey(attendeeID, slot)
	exp, ok := d.expires[key]
	if !ok {
		return false, nil
	}
	if !d.now().Before(exp) {
		delete(d.expires, key)
		return false, nil
	}
	return true, nil
}

func (d *MemoryDeduper) Mark(_ context.Context, attendeeID string, slot int, window time.Duration) error {
	d.mu.Lock()
	d.expires[DedupKey(attendeeID, slot)] = d.now().Add(window)
	d.mu.Unlock()
	return nil
}

func (d *MemoryDeduper) Forget(_ context.Context, attendeeID string, slot int) error {
	d.mu.Lock()
	delete(d.expires, DedupKey(attendeeID, slot))
	d.mu.Unlock()
	return nil
}
