package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
	"github.com/cometsur/checkin-sync/internal/pkg/metrics"
	"github.com/cometsur/checkin-sync/internal/pkg/schedule"
)

// SyncState is the phase a synchronizer is in.
type SyncState int32

const (
	StateIdle SyncState = iota
	StateFetching
	StateApplying
	StateFailed
)

func (s SyncState) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateApplying:
		return "applying"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// SessionConfig tunes the SessionSynchronizer. Zero values take defaults.
type SessionConfig struct {
	InitialDelay time.Duration
	Interval     time.Duration
	// SessionTTL bounds how long a login is trusted without a fresh login.
	SessionTTL time.Duration
	// SignalWindow is how long a ChangeSignal stays raised.
	SignalWindow time.Duration
	Now          func() time.Time
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.InitialDelay <= 0 {
		c.InitialDelay = 2 * time.Second
	}
	if c.Interval <= 0 {
		c.Interval = 60 * time.Second
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 2 * time.Hour
	}
	if c.SignalWindow <= 0 {
		c.SignalWindow = 3 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// SessionSynchronizer keeps the cached session in step with the server
// record of the logged-in user.
type SessionSynchronizer struct {
	api   ports.UserAPI
	store ports.CacheStore
	guard *FetchGuard
	cfg   SessionConfig
	log   zerolog.Logger

	state atomic.Int32
	gen   atomic.Uint64

	mu        sync.Mutex
	task      *schedule.Task
	signal    domain.ChangeSignal
	signalSeq uint64
	clear     *time.Timer
	listeners []func(domain.ChangeSignal)
}

func NewSessionSynchronizer(api ports.UserAPI, store ports.CacheStore, cfg SessionConfig, log zerolog.Logger) *SessionSynchronizer {
	return &SessionSynchronizer{
		api:   api,
		store: store,
		guard: NewFetchGuard("session"),
		cfg:   cfg.withDefaults(),
		log:   log,
	}
}

// Start schedules background refreshes. Calling it while already started is
// a no-op.
func (s *SessionSynchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task != nil {
		return
	}
	s.task = schedule.Every(ctx, s.cfg.InitialDelay, s.cfg.Interval, func(ctx context.Context) {
		if err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn().Err(err).Msg("session refresh failed")
		}
	})
}

// Stop cancels background refreshes and waits for an in-flight one. Results
// of any refresh that started before Stop are discarded.
func (s *SessionSynchronizer) Stop() {
	s.gen.Add(1)

	s.mu.Lock()
	task := s.task
	s.task = nil
	if s.clear != nil {
		s.clear.Stop()
		s.clear = nil
	}
	s.mu.Unlock()

	if task != nil {
		task.Stop()
		task.Wait()
	}
}

// State reports the current phase.
func (s *SessionSynchronizer) State() SyncState {
	return SyncState(s.state.Load())
}

// Signal returns the raised ChangeSignal, or the zero value once it has
// cleared.
func (s *SessionSynchronizer) Signal() domain.ChangeSignal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signal
}

// OnChange registers fn to be called with every raised ChangeSignal.
func (s *SessionSynchronizer) OnChange(fn func(domain.ChangeSignal)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Refresh fetches the logged-in user and applies it to the cache. It returns
// nil without doing anything when no session is cached or another refresh
// is in flight.
func (s *SessionSynchronizer) Refresh(ctx context.Context) error {
	if !s.guard.TryEnter() {
		return nil
	}
	defer s.guard.Exit()
	defer s.setState(StateIdle)

	gen := s.gen.Load()
	start := s.cfg.Now()

	prev, ok := readSession(ctx, s.store)
	if !ok {
		metrics.SyncRunsTotal.WithLabelValues("session", "skipped").Inc()
		return nil
	}

	if s.expired(prev, start) {
		s.log.Info().Str("user_id", prev.ID).Msg("session expired, logging out")
		metrics.SyncRunsTotal.WithLabelValues("session", "logout").Inc()
		if err := clearSession(ctx, s.store); err != nil {
			return err
		}
		return domain.ErrSessionExpired
	}

	s.setState(StateFetching)
	payload, err := s.api.FetchUser(ctx, prev.Token, prev.ID)
	if err != nil {
		s.setState(StateFailed)
		if domain.IsInvalidCredential(err) && s.gen.Load() == gen {
			s.log.Warn().Err(err).Str("user_id", prev.ID).Msg("credential rejected, clearing session")
			metrics.SyncRunsTotal.WithLabelValues("session", "logout").Inc()
			if clearErr := clearSession(ctx, s.store); clearErr != nil {
				return clearErr
			}
			return err
		}
		metrics.SyncRunsTotal.WithLabelValues("session", "error").Inc()
		return err
	}
	if s.gen.Load() != gen {
		return nil
	}

	s.setState(StateApplying)
	next := snapshotFromRecord(payload.User, prev)
	if payload.Token != "" {
		next.Token = payload.Token
	}

	sig := Diff(prev, next)
	if err := writeSession(ctx, s.store, next, s.cfg.Now()); err != nil {
		metrics.SyncRunsTotal.WithLabelValues("session", "error").Inc()
		return err
	}
	if sig.HasChanges {
		s.raise(sig)
	}

	metrics.SyncRunsTotal.WithLabelValues("session", "ok").Inc()
	metrics.SyncDuration.WithLabelValues("session").Observe(s.cfg.Now().Sub(start).Seconds())
	return nil
}

func (s *SessionSynchronizer) expired(snap domain.UserSnapshot, now time.Time) bool {
	if !snap.LoginAt.IsZero() && now.Sub(snap.LoginAt) > s.cfg.SessionTTL {
		return true
	}
	return tokenExpired(snap.Token, now)
}

func (s *SessionSynchronizer) setState(st SyncState) {
	s.state.Store(int32(st))
}

func (s *SessionSynchronizer) raise(sig domain.ChangeSignal) {
	for _, f := range sig.ChangedFields {
		metrics.SessionChangesTotal.WithLabelValues(f).Inc()
	}

	s.mu.Lock()
	s.signal = sig
	s.signalSeq++
	seq := s.signalSeq
	if s.clear != nil {
		s.clear.Stop()
	}
	s.clear = time.AfterFunc(s.cfg.SignalWindow, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.signalSeq == seq {
			s.signal = domain.ChangeSignal{}
		}
	})
	listeners := make([]func(domain.ChangeSignal), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	s.log.Info().Strs("fields", sig.ChangedFields).Msg("session changed on server")
	for _, fn := range listeners {
		fn(sig)
	}
}

// Diff compares two snapshots field by field. It is pure: the same inputs
// always give the same signal, and Diff(x, x) never reports a change.
func Diff(prev, next domain.UserSnapshot) domain.ChangeSignal {
	var fields []string
	if prev.Attendance != next.Attendance {
		fields = append(fields, domain.FieldAttendance)
	}
	if prev.DisplayName != next.DisplayName {
		fields = append(fields, domain.FieldDisplayName)
	}
	if prev.Role != next.Role {
		fields = append(fields, domain.FieldRoleTag)
	}
	if prev.Token != next.Token {
		fields = append(fields, domain.FieldAuthToken)
	}
	if len(fields) == 0 {
		return domain.ChangeSignal{}
	}
	return domain.ChangeSignal{HasChanges: true, ChangedFields: fields, Previous: prev}
}
