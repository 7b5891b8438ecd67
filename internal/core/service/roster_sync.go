package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
	"github.com/cometsur/checkin-sync/internal/infrastructure/cache"
	"github.com/cometsur/checkin-sync/internal/pkg/metrics"
	"github.com/cometsur/checkin-sync/internal/pkg/schedule"
)

// RosterConfig tunes the RosterSynchronizer. Zero values take defaults.
type RosterConfig struct {
	Interval time.Duration
	Now      func() time.Time
}

// RosterSynchronizer mirrors the server's list of attendees into the cache.
type RosterSynchronizer struct {
	api    ports.UserAPI
	store  ports.CacheStore
	roster *RosterCache
	guard  *FetchGuard
	cfg    RosterConfig
	log    zerolog.Logger

	state atomic.Int32
	gen   atomic.Uint64

	mu   sync.Mutex
	task *schedule.Task
}

func NewRosterSynchronizer(api ports.UserAPI, store ports.CacheStore, roster *RosterCache, cfg RosterConfig, log zerolog.Logger) *RosterSynchronizer {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RosterSynchronizer{
		api:    api,
		store:  store,
		roster: roster,
		guard:  NewFetchGuard("roster"),
		cfg:    cfg,
		log:    log,
	}
}

// Start refreshes immediately and then on every interval. Calling it while
// already started is a no-op.
func (s *RosterSynchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task != nil {
		return
	}
	s.task = schedule.Every(ctx, 0, s.cfg.Interval, func(ctx context.Context) {
		if _, err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn().Err(err).Msg("roster refresh failed")
		}
	})
}

// Stop cancels background refreshes and discards any in-flight result.
func (s *RosterSynchronizer) Stop() {
	s.gen.Add(1)

	s.mu.Lock()
	task := s.task
	s.task = nil
	s.mu.Unlock()

	if task != nil {
		task.Stop()
		task.Wait()
	}
}

func (s *RosterSynchronizer) State() SyncState {
	return SyncState(s.state.Load())
}

// Entries returns the cached roster without touching the network.
func (s *RosterSynchronizer) Entries(ctx context.Context) []domain.RosterEntry {
	return s.roster.Entries(ctx)
}

// Refresh fetches the roster and replaces the cached one. When a refresh is
// already in flight it returns the cached roster instead. On failure the
// cache is left as it was.
func (s *RosterSynchronizer) Refresh(ctx context.Context) ([]domain.RosterEntry, error) {
	if !s.guard.TryEnter() {
		return s.roster.Entries(ctx), nil
	}
	defer s.guard.Exit()
	defer s.state.Store(int32(StateIdle))

	gen := s.gen.Load()
	start := s.cfg.Now()

	token, _ := s.store.Read(ctx, cache.KeyToken)
	if token == undefinedToken {
		token = ""
	}

	s.state.Store(int32(StateFetching))
	records, err := s.api.FetchRoster(ctx, token)
	if err != nil {
		s.state.Store(int32(StateFailed))
		metrics.SyncRunsTotal.WithLabelValues("roster", "error").Inc()
		return nil, err
	}
	if s.gen.Load() != gen {
		return s.roster.Entries(ctx), nil
	}

	s.state.Store(int32(StateApplying))
	incoming := make([]domain.RosterEntry, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		incoming = append(incoming, entryFromRecord(rec))
	}
	SortRoster(incoming)

	entries, err := s.roster.Update(ctx, func([]domain.RosterEntry) ([]domain.RosterEntry, error) {
		return s.overlayPending(incoming, s.roster.Pending()), nil
	})
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues("roster", "error").Inc()
		return nil, err
	}
	if err := s.store.Write(ctx, cache.KeyLastUpdated, s.cfg.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		s.log.Warn().Err(err).Msg("failed to stamp last update")
	}

	metrics.SyncRunsTotal.WithLabelValues("roster", "ok").Inc()
	metrics.SyncDuration.WithLabelValues("roster").Observe(s.cfg.Now().Sub(start).Seconds())
	s.log.Debug().Int("entries", len(entries)).Msg("roster refreshed")
	return entries, nil
}

// overlayPending re-applies unconfirmed edits on top of a fresh server list,
// unless the server's copy is already newer than the edit's base. Entries
// with a removal in flight stay hidden whatever their version.
func (s *RosterSynchronizer) overlayPending(entries []domain.RosterEntry, pending []domain.PendingMutation) []domain.RosterEntry {
	for _, m := range pending {
		i := domain.FindEntry(entries, m.TargetID)
		if i < 0 {
			continue
		}
		if domain.IsRemoval(m.Delta) {
			entries = slices.Delete(entries, i, i+1)
			continue
		}
		if m.Supersedes(entries[i]) {
			continue
		}
		if err := m.Delta.Apply(&entries[i]); err != nil {
			s.log.Warn().Err(err).
				Str("mutation_id", m.LocalID).
				Str("target_id", m.TargetID).
				Msg("failed to re-apply pending edit")
		}
	}
	return entries
}

func entryFromRecord(rec ports.UserRecord) domain.RosterEntry {
	return domain.RosterEntry{
		ID:            rec.ID,
		DisplayName:   strings.TrimSpace(rec.Name),
		Email:         rec.Email,
		University:    rec.University,
		Category:      rec.Category,
		Profession:    rec.Profession,
		PaymentMethod: rec.PaymentMethod,
		VoucherCode:   rec.Voucher,
		ImportAmount:  rec.ImportAmount,
		Attendance:    domain.NormalizeAttendance(rec.Attendance),
		UpdatedAt:     rec.UpdatedAt,
	}
}

// SortRoster orders entries by display name using Spanish collation,
// ignoring case. Equal names keep a stable order by id.
func SortRoster(entries []domain.RosterEntry) {
	col := collate.New(language.Spanish, collate.IgnoreCase)
	sort.SliceStable(entries, func(i, j int) bool {
		if c := col.CompareString(entries[i].DisplayName, entries[j].DisplayName); c != 0 {
			return c < 0
		}
		return entries[i].ID < entries[j].ID
	})
}
