package cache

import (
	"sync"

	"github.com/cometsur/checkin-sync/internal/core/ports"
)

// Broadcaster fans cache changes out to subscribers. Handlers run on the
// writer's goroutine, after the write is visible.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
}

type subscription struct {
	key string
	fn  func(ports.CacheChange)
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]subscription)}
}

// Subscribe registers fn for key ("" means every key).
func (b *Broadcaster) Subscribe(key string, fn func(ports.CacheChange)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{key: key, fn: fn}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers change to every matching subscriber.
func (b *Broadcaster) Publish(change ports.CacheChange) {
	b.mu.RLock()
	targets := make([]func(ports.CacheChange), 0, len(b.subs))
	for _, s := range b.subs {
		if s.key == "" || s.key == change.Key {
			targets = append(targets, s.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range targets {
		fn(change)
	}
}
