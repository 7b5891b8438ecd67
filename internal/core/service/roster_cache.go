package service

import (
	"context"
	"sort"
	"sync"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
	"github.com/cometsur/checkin-sync/internal/infrastructure/cache"
	"github.com/cometsur/checkin-sync/internal/pkg/metrics"
)

// RosterCache serializes every read-modify-write of the cached roster and
// tracks optimistic edits that the server has not confirmed yet.
type RosterCache struct {
	store ports.CacheStore

	mu sync.Mutex

	pmu     sync.Mutex
	pending map[string]domain.PendingMutation
}

func NewRosterCache(store ports.CacheStore) *RosterCache {
	return &RosterCache{store: store, pending: make(map[string]domain.PendingMutation)}
}

// Entries returns the cached roster, or an empty one when nothing valid is
// cached.
func (c *RosterCache) Entries(ctx context.Context) []domain.RosterEntry {
	entries, _ := cache.ReadJSON[[]domain.RosterEntry](ctx, c.store, cache.KeyRoster)
	if entries == nil {
		return []domain.RosterEntry{}
	}
	return entries
}

// Update runs fn on the current roster under the roster lock and writes the
// result back in a single write. Nothing is written when fn fails.
func (c *RosterCache) Update(ctx context.Context, fn func([]domain.RosterEntry) ([]domain.RosterEntry, error)) ([]domain.RosterEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fn(c.Entries(ctx))
	if err != nil {
		return nil, err
	}
	if err := cache.WriteJSON(ctx, c.store, cache.KeyRoster, next); err != nil {
		return nil, err
	}
	metrics.RosterSize.Set(float64(len(next)))
	return next, nil
}

func (c *RosterCache) addPending(m domain.PendingMutation) {
	c.pmu.Lock()
	c.pending[m.LocalID] = m
	n := len(c.pending)
	c.pmu.Unlock()
	metrics.PendingMutations.Set(float64(n))
}

func (c *RosterCache) removePending(localID string) {
	c.pmu.Lock()
	delete(c.pending, localID)
	n := len(c.pending)
	c.pmu.Unlock()
	metrics.PendingMutations.Set(float64(n))
}

// Pending returns the unconfirmed edits, oldest first.
func (c *RosterCache) Pending() []domain.PendingMutation {
	c.pmu.Lock()
	out := make([]domain.PendingMutation, 0, len(c.pending))
	for _, m := range c.pending {
		out = append(out, m)
	}
	c.pmu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].LocalID < out[j].LocalID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
