package service

import (
	"sync/atomic"

	"github.com/cometsur/checkin-sync/internal/pkg/metrics"
)

// FetchGuard lets at most one refresh of a resource run at a time. It is a
// latch, not a queue: a denied caller simply skips this round.
type FetchGuard struct {
	resource string
	busy     atomic.Bool
}

func NewFetchGuard(resource string) *FetchGuard {
	return &FetchGuard{resource: resource}
}

// TryEnter takes the latch. It returns false when a refresh is already in
// flight.
func (g *FetchGuard) TryEnter() bool {
	if g.busy.CompareAndSwap(false, true) {
		return true
	}
	metrics.FetchGuardDenialsTotal.WithLabelValues(g.resource).Inc()
	return false
}

// Exit releases the latch.
func (g *FetchGuard) Exit() {
	g.busy.Store(false)
}

// Busy reports whether a refresh is in flight.
func (g *FetchGuard) Busy() bool {
	return g.busy.Load()
}
