package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
	"github.com/cometsur/checkin-sync/internal/infrastructure/cache"
	"github.com/cometsur/checkin-sync/internal/pkg/metrics"
)

// Reconciler applies edits to the cached roster immediately and then
// confirms or undoes them once the server answers.
type Reconciler struct {
	api    ports.UserAPI
	store  ports.CacheStore
	roster *RosterCache
	now    func() time.Time
	log    zerolog.Logger
}

func NewReconciler(api ports.UserAPI, store ports.CacheStore, roster *RosterCache, now func() time.Time, log zerolog.Logger) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{api: api, store: store, roster: roster, now: now, log: log}
}

// Apply patches targetID locally, sends delta to the server and reconciles.
// On failure only the fields the delta touched are restored and the error
// is returned wrapped with the mutation's local id. A RemovalDelta drops the
// entry at once and re-inserts it if the server refuses the DELETE.
func (r *Reconciler) Apply(ctx context.Context, targetID string, delta domain.FieldDelta) (*domain.MutationOutcome, error) {
	if err := delta.Validate(); err != nil {
		return nil, err
	}

	token, _ := r.store.Read(ctx, cache.KeyToken)
	if token == "" || token == undefinedToken {
		return nil, domain.ErrNotLoggedIn
	}

	m := domain.PendingMutation{
		LocalID:   "local-" + uuid.NewString(),
		TargetID:  targetID,
		Delta:     delta,
		CreatedAt: r.now(),
	}

	_, err := r.roster.Update(ctx, func(entries []domain.RosterEntry) ([]domain.RosterEntry, error) {
		i := domain.FindEntry(entries, targetID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrEntryNotFound, targetID)
		}
		m.Before = entries[i]
		m.BaseVersion = entries[i].UpdatedAt
		if domain.IsRemoval(delta) {
			entries = slices.Delete(entries, i, i+1)
		} else if err := delta.Apply(&entries[i]); err != nil {
			return nil, err
		}
		r.roster.addPending(m)
		return entries, nil
	})
	if err != nil {
		r.roster.removePending(m.LocalID)
		return nil, err
	}

	kind := deltaKind(delta)
	log := r.log.With().Str("mutation_id", m.LocalID).Str("target_id", targetID).Strs("fields", delta.Fields()).Logger()
	log.Debug().Msg("optimistic edit applied")

	rec, putErr := r.send(ctx, token, targetID, delta)
	if putErr != nil {
		outcome := r.rollback(ctx, m)
		metrics.MutationsTotal.WithLabelValues(kind, "rolled_back").Inc()
		log.Warn().Err(putErr).Msg("edit rejected, rolled back")
		return outcome, fmt.Errorf("mutation %s: %w", m.LocalID, putErr)
	}

	outcome, err := r.confirm(ctx, m, rec)
	if err != nil {
		return nil, fmt.Errorf("mutation %s: %w", m.LocalID, err)
	}
	metrics.MutationsTotal.WithLabelValues(kind, "confirmed").Inc()
	return outcome, nil
}

func (r *Reconciler) send(ctx context.Context, token, targetID string, delta domain.FieldDelta) (*ports.UserRecord, error) {
	if domain.IsRemoval(delta) {
		return nil, r.api.DeleteUser(ctx, token, targetID)
	}
	return r.api.UpdateUser(ctx, token, targetID, delta)
}

func (r *Reconciler) confirm(ctx context.Context, m domain.PendingMutation, rec *ports.UserRecord) (*domain.MutationOutcome, error) {
	outcome := &domain.MutationOutcome{LocalID: m.LocalID, TargetID: m.TargetID}

	_, err := r.roster.Update(ctx, func(entries []domain.RosterEntry) ([]domain.RosterEntry, error) {
		defer r.roster.removePending(m.LocalID)
		i := domain.FindEntry(entries, m.TargetID)
		if domain.IsRemoval(m.Delta) {
			outcome.Entry = m.Before
			outcome.Removed = true
			if i >= 0 {
				entries = slices.Delete(entries, i, i+1)
			}
			return entries, nil
		}
		if i < 0 {
			return entries, nil
		}
		if rec != nil && rec.ID == m.TargetID {
			entries[i] = entryFromRecord(*rec)
			outcome.Reconciled = true
		}
		outcome.Entry = entries[i]
		if outcome.Reconciled {
			SortRoster(entries)
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.Entry.ID != "" && !outcome.Removed {
		r.patchSession(ctx, outcome.Entry)
	}
	return outcome, nil
}

func (r *Reconciler) rollback(ctx context.Context, m domain.PendingMutation) *domain.MutationOutcome {
	outcome := &domain.MutationOutcome{LocalID: m.LocalID, TargetID: m.TargetID, RolledBack: true}

	_, err := r.roster.Update(ctx, func(entries []domain.RosterEntry) ([]domain.RosterEntry, error) {
		defer r.roster.removePending(m.LocalID)
		i := domain.FindEntry(entries, m.TargetID)
		if domain.IsRemoval(m.Delta) {
			if i < 0 {
				entries = append(entries, m.Before)
				SortRoster(entries)
			}
			outcome.Entry = m.Before
			return entries, nil
		}
		if i < 0 {
			return entries, nil
		}
		// A refresh already brought a newer server copy; keep it.
		if !m.Supersedes(entries[i]) {
			m.Delta.Revert(&entries[i], m.Before)
		}
		outcome.Entry = entries[i]
		return entries, nil
	})
	if err != nil {
		r.log.Error().Err(err).Str("mutation_id", m.LocalID).Msg("rollback write failed")
	}
	return outcome
}

// patchSession mirrors a confirmed edit of the logged-in user into the
// session keys.
func (r *Reconciler) patchSession(ctx context.Context, e domain.RosterEntry) {
	id, _ := r.store.Read(ctx, cache.KeyUserID)
	if id != e.ID {
		return
	}
	if err := cache.WriteJSON(ctx, r.store, cache.KeyAttendance, e.Attendance); err != nil {
		r.log.Warn().Err(err).Msg("failed to patch session attendance")
	}
	if e.DisplayName != "" {
		if err := r.store.Write(ctx, cache.KeyName, e.DisplayName); err != nil {
			r.log.Warn().Err(err).Msg("failed to patch session name")
		}
	}
}

func deltaKind(d domain.FieldDelta) string {
	switch d.(type) {
	case domain.SlotDelta:
		return "slot"
	case domain.ProfileDelta:
		return "profile"
	case domain.RemovalDelta:
		return "removal"
	default:
		return "other"
	}
}
