package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
	"github.com/cometsur/checkin-sync/internal/pkg/metrics"
)

const defaultScanWindow = 5 * time.Second

type checkinService struct {
	roster     *RosterCache
	reconciler *Reconciler
	dedup      ports.ScanDeduper
	journal    ports.CheckinJournal
	window     time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewCheckinService returns a CheckinService. A nil journal disables the
// audit trail.
func NewCheckinService(
	roster *RosterCache,
	reconciler *Reconciler,
	dedup ports.ScanDeduper,
	journal ports.CheckinJournal,
	window time.Duration,
	log zerolog.Logger,
) ports.CheckinService {
	if window <= 0 {
		window = defaultScanWindow
	}
	if journal == nil {
		journal = NopJournal{}
	}
	return &checkinService{
		roster:     roster,
		reconciler: reconciler,
		dedup:      dedup,
		journal:    journal,
		window:     window,
		now:        time.Now,
		log:        log,
	}
}

// Scan marks the scanned attendee present for the given day and turn.
func (s *checkinService) Scan(ctx context.Context, in ports.ScanInput) (*ports.CheckinResult, error) {
	start := s.now()

	// 1. Resolve the slot.
	slot, err := domain.SlotFor(in.Day, in.Turn)
	if err != nil {
		metrics.ScansTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("scan: %w", err)
	}

	// 2. Find the attendee in the cached roster.
	code := strings.TrimSpace(in.Code)
	entry, ok := s.lookup(ctx, code)
	if !ok {
		metrics.ScansTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("scan %q: %w", code, domain.ErrEntryNotFound)
	}

	event := domain.CheckinEvent{
		AttendeeID:   entry.ID,
		AttendeeName: entry.DisplayName,
		Day:          in.Day,
		Turn:         in.Turn,
		Slot:         slot,
		Operator:     in.Operator,
		At:           start,
	}

	// 3. Suppress repeated frames of the same code.
	isDup, err := s.dedup.IsDuplicate(ctx, entry.ID, slot)
	if err != nil {
		s.log.Warn().Err(err).Str("attendee_id", entry.ID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		s.log.Debug().Str("attendee_id", entry.ID).Int("slot", slot).Msg("duplicate scan skipped")
		metrics.ScansTotal.WithLabelValues(domain.CheckinDuplicate).Inc()
		event.Outcome = domain.CheckinDuplicate
		s.record(ctx, event)
		return &ports.CheckinResult{Entry: entry, Slot: slot, Duplicate: true}, nil
	}
	if markErr := s.dedup.Mark(ctx, entry.ID, slot, s.window); markErr != nil {
		s.log.Warn().Err(markErr).Str("attendee_id", entry.ID).Msg("failed to set dedup key")
	}

	// 4. Mark the slot optimistically and confirm with the server.
	outcome, err := s.reconciler.Apply(ctx, entry.ID, domain.SlotDelta{Index: slot, Value: 1})
	if err != nil {
		if outcome != nil {
			event.MutationID = outcome.LocalID
		}
		if forgetErr := s.dedup.Forget(ctx, entry.ID, slot); forgetErr != nil {
			s.log.Warn().Err(forgetErr).Str("attendee_id", entry.ID).Msg("failed to clear dedup key")
		}
		event.Outcome = domain.CheckinRolledBack
		event.Error = err.Error()
		s.record(ctx, event)
		metrics.ScansTotal.WithLabelValues(domain.CheckinRolledBack).Inc()
		metrics.ScanProcessingDuration.WithLabelValues(domain.CheckinRolledBack).Observe(s.now().Sub(start).Seconds())
		return nil, fmt.Errorf("scan %q: %w", code, err)
	}

	// 5. Audit trail (non-fatal on failure).
	event.MutationID = outcome.LocalID
	event.Outcome = domain.CheckinAccepted
	s.record(ctx, event)

	metrics.ScansTotal.WithLabelValues(domain.CheckinAccepted).Inc()
	metrics.ScanProcessingDuration.WithLabelValues(domain.CheckinAccepted).Observe(s.now().Sub(start).Seconds())

	s.log.Info().
		Str("attendee_id", entry.ID).
		Int("day", in.Day).
		Str("turn", string(in.Turn)).
		Str("operator", in.Operator).
		Msg("attendance recorded")

	return &ports.CheckinResult{Entry: outcome.Entry, Slot: slot, MutationID: outcome.LocalID}, nil
}

func (s *checkinService) lookup(ctx context.Context, code string) (domain.RosterEntry, bool) {
	if code == "" {
		return domain.RosterEntry{}, false
	}
	for _, e := range s.roster.Entries(ctx) {
		if e.MatchesCode(code) {
			return e, true
		}
	}
	return domain.RosterEntry{}, false
}

func (s *checkinService) record(ctx context.Context, event domain.CheckinEvent) {
	if err := s.journal.Record(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn().Err(err).Str("attendee_id", event.AttendeeID).Msg("failed to journal scan")
	}
}

// NopJournal discards check-in events.
type NopJournal struct{}

func (NopJournal) Record(context.Context, domain.CheckinEvent) error { return nil }
