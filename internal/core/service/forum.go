package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
	"github.com/cometsur/checkin-sync/internal/infrastructure/cache"
	"github.com/cometsur/checkin-sync/internal/pkg/metrics"
	"github.com/cometsur/checkin-sync/internal/pkg/schedule"
)

// ForumConfig tunes the Forum. Zero values take defaults.
type ForumConfig struct {
	ReconnectInterval time.Duration
	SweepInterval     time.Duration
	Now               func() time.Time
}

// Forum keeps the local view of the live forum: sent messages show up at
// once as pending and are swapped for the server's copy when it arrives.
type Forum struct {
	transport ports.ForumTransport
	store     ports.CacheStore
	cfg       ForumConfig
	log       zerolog.Logger

	mu        sync.Mutex
	connected bool
	user      domain.UserSnapshot
	messages  []domain.ForumMessage
	seen      map[string]struct{}
	tasks     []*schedule.Task
	unsub     func()
}

func NewForum(transport ports.ForumTransport, store ports.CacheStore, cfg ForumConfig, log zerolog.Logger) *Forum {
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 2 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Forum{
		transport: transport,
		store:     store,
		cfg:       cfg,
		log:       log,
		seen:      make(map[string]struct{}),
	}
}

// Start keeps the forum connected while a session exists and expires old
// messages in the background. Logging out closes the connection.
func (f *Forum) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tasks) > 0 {
		return
	}
	f.unsub = f.store.Subscribe(cache.KeyToken, func(ch ports.CacheChange) {
		if ch.Deleted && f.Connected() {
			f.log.Info().Msg("session ended, leaving forum")
			f.Disconnect()
		}
	})
	f.tasks = append(f.tasks,
		schedule.Every(ctx, 0, f.cfg.ReconnectInterval, func(ctx context.Context) {
			if f.Connected() {
				return
			}
			if err := f.Connect(ctx); err != nil && err != domain.ErrNotLoggedIn {
				f.log.Debug().Err(err).Msg("forum connect failed")
			}
		}),
		schedule.Every(ctx, f.cfg.SweepInterval, f.cfg.SweepInterval, func(context.Context) {
			f.Sweep(f.cfg.Now())
		}),
	)
}

// Stop ends the background tasks and closes the connection.
func (f *Forum) Stop() {
	f.mu.Lock()
	tasks := f.tasks
	f.tasks = nil
	unsub := f.unsub
	f.unsub = nil
	f.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	for _, t := range tasks {
		t.Stop()
		t.Wait()
	}
	f.Disconnect()
}

// Connect opens the realtime connection for the cached session. On failure
// the forum stays disconnected.
func (f *Forum) Connect(ctx context.Context) error {
	snap, ok := readSession(ctx, f.store)
	if !ok || snap.DisplayName == "" {
		return domain.ErrNotLoggedIn
	}

	f.mu.Lock()
	f.user = snap
	f.mu.Unlock()

	if err := f.transport.Connect(ctx, snap.Token, f.handle); err != nil {
		f.mu.Lock()
		f.connected = false
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	f.log.Info().Str("user_id", snap.ID).Msg("forum connected")
	return nil
}

// Disconnect closes the connection and forgets which ids were seen.
func (f *Forum) Disconnect() {
	if err := f.transport.Close(); err != nil {
		f.log.Debug().Err(err).Msg("forum close")
	}
	f.mu.Lock()
	f.connected = false
	f.seen = make(map[string]struct{})
	f.mu.Unlock()
}

func (f *Forum) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// Messages returns a copy of the visible messages, oldest first.
func (f *Forum) Messages() []domain.ForumMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ForumMessage, len(f.messages))
	copy(out, f.messages)
	return out
}

// Send posts text. The message is visible locally as pending until the
// server echoes it back.
func (f *Forum) Send(ctx context.Context, text string) (domain.ForumMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ForumMessage{}, domain.ErrEmptyMessage
	}

	f.mu.Lock()
	if !f.connected {
		f.mu.Unlock()
		return domain.ForumMessage{}, domain.ErrNotConnected
	}
	now := f.cfg.Now()
	msg := domain.ForumMessage{
		ID:        "local-" + uuid.NewString(),
		UserID:    f.user.ID,
		UserName:  f.user.DisplayName,
		Text:      text,
		Timestamp: now,
		UserRole:  serverRole(f.user.Role),
		ExpiresAt: now.Add(domain.MessageTTL),
		Own:       true,
		Pending:   true,
	}
	f.messages = append(f.messages, msg)
	f.mu.Unlock()

	if err := f.transport.Send(ctx, text); err != nil {
		f.remove(msg.ID)
		return domain.ForumMessage{}, err
	}
	metrics.ForumMessagesTotal.WithLabelValues("sent").Inc()
	return msg, nil
}

// Sweep drops messages older than domain.MessageTTL and returns how many
// were removed.
func (f *Forum) Sweep(now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.messages[:0]
	for _, m := range f.messages {
		if !m.Expired(now) {
			kept = append(kept, m)
		}
	}
	removed := len(f.messages) - len(kept)
	f.messages = kept
	if removed > 0 {
		metrics.ForumMessagesTotal.WithLabelValues("expired").Add(float64(removed))
	}
	return removed
}

func (f *Forum) handle(ev ports.ForumEvent) {
	switch ev.Kind {
	case ports.ForumMessage:
		f.receive(ev.Message)
	case ports.ForumHistory:
		f.replaceHistory(ev.History)
	case ports.ForumDisconnect:
		f.mu.Lock()
		f.connected = false
		f.mu.Unlock()
		f.log.Info().Msg("forum disconnected")
	}
}

func (f *Forum) receive(m domain.ForumMessage) {
	if m.ID == "" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.seen[m.ID]; dup {
		return
	}
	f.seen[m.ID] = struct{}{}
	m.Own = m.UserID != "" && m.UserID == f.user.ID
	metrics.ForumMessagesTotal.WithLabelValues("received").Inc()

	for i, existing := range f.messages {
		if existing.Pending && existing.UserID == m.UserID && existing.Text == m.Text {
			f.messages[i] = m
			return
		}
	}
	for _, existing := range f.messages {
		if existing.ID == m.ID {
			return
		}
	}
	f.messages = append(f.messages, m)
}

func (f *Forum) replaceHistory(history []domain.ForumMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = make(map[string]struct{}, len(history))
	msgs := make([]domain.ForumMessage, 0, len(history))
	for _, m := range history {
		if m.ID == "" {
			continue
		}
		m.Own = m.UserID != "" && m.UserID == f.user.ID
		f.seen[m.ID] = struct{}{}
		msgs = append(msgs, m)
	}
	f.messages = msgs
}

func (f *Forum) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.messages {
		if m.ID == id {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			return
		}
	}
}

// serverRole maps a Role back to the server's vocabulary.
func serverRole(r domain.Role) string {
	if r == domain.RoleModerator {
		return "moderador"
	}
	return "usuario"
}
