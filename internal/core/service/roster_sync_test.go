package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
	"github.com/cometsur/checkin-sync/internal/infrastructure/cache"
)

func newRosterSync(api *stubUserAPI, store *cache.MemoryStore) (*RosterSynchronizer, *RosterCache) {
	roster := NewRosterCache(store)
	return NewRosterSynchronizer(api, store, roster, RosterConfig{}, zerolog.Nop()), roster
}

func TestRosterSync_SortsCaseInsensitively(t *testing.T) {
	api := newStubUserAPI(
		record("1", "Zeta", "usuario"),
		record("2", "alpha", "usuario"),
		record("3", "Beta", "usuario"),
		record("4", "Ñandú", "usuario"),
		record("5", "nube", "usuario"),
	)
	s, _ := newRosterSync(api, cache.NewMemoryStore())

	entries, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	want := []string{"alpha", "Beta", "nube", "Ñandú", "Zeta"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, name := range want {
		if entries[i].DisplayName != name {
			t.Errorf("position %d: got %q want %q", i, entries[i].DisplayName, name)
		}
	}
}

func TestRosterSync_NormalizesAttendance(t *testing.T) {
	legacy := ports.UserRecord{ID: "l", Name: "Legacy", Attendance: json.RawMessage(`3`)}
	short := ports.UserRecord{ID: "s", Name: "Short", Attendance: json.RawMessage(`[1, 2]`)}
	long := ports.UserRecord{ID: "o", Name: "Long", Attendance: json.RawMessage(`[1,1,1,1,1,1,1,1]`)}
	missing := ports.UserRecord{ID: "m", Name: "Missing"}
	api := newStubUserAPI(legacy, short, long, missing)
	s, _ := newRosterSync(api, cache.NewMemoryStore())

	entries, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	want := map[string]domain.AttendanceRecord{
		"l": {},
		"s": {1, 1, 0, 0, 0, 0},
		"o": {1, 1, 1, 1, 1, 1},
		"m": {},
	}
	for _, e := range entries {
		if e.Attendance != want[e.ID] {
			t.Errorf("%s: got %v want %v", e.ID, e.Attendance, want[e.ID])
		}
	}
}

func TestRosterSync_FailureLeavesCache(t *testing.T) {
	api := newStubUserAPI()
	api.rosterErr = &domain.APIError{Status: 500}
	store := cache.NewMemoryStore()
	seedRoster(t, store, domain.RosterEntry{ID: "1", DisplayName: "Ana"})
	s, roster := newRosterSync(api, store)

	if _, err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := roster.Entries(context.Background()); len(got) != 1 || got[0].DisplayName != "Ana" {
		t.Fatalf("cache should be untouched, got %+v", got)
	}
}

func TestRosterSync_FullReplace(t *testing.T) {
	api := newStubUserAPI(record("2", "Bruno", "usuario"))
	store := cache.NewMemoryStore()
	seedRoster(t, store, domain.RosterEntry{ID: "1", DisplayName: "Ana"})
	s, roster := newRosterSync(api, store)

	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got := roster.Entries(context.Background())
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("expected server list to replace cache, got %+v", got)
	}
}

func TestRosterSync_DeniedRefreshReturnsCache(t *testing.T) {
	api := newStubUserAPI(record("1", "Ana", "usuario"))
	api.gate = make(chan struct{})
	api.entered = make(chan struct{}, 1)
	store := cache.NewMemoryStore()
	seedRoster(t, store, domain.RosterEntry{ID: "0", DisplayName: "Cached"})
	s, _ := newRosterSync(api, store)

	done := make(chan struct{})
	go func() {
		_, _ = s.Refresh(context.Background())
		close(done)
	}()
	<-api.entered

	entries, err := s.Refresh(context.Background())
	if err != nil || len(entries) != 1 || entries[0].DisplayName != "Cached" {
		t.Fatalf("denied refresh should return cache, got %+v %v", entries, err)
	}

	close(api.gate)
	<-done
	if api.fetchRosterCalls != 1 {
		t.Fatalf("expected one fetch, got %d", api.fetchRosterCalls)
	}
}

func TestRosterSync_PendingEditSurvivesStaleRefresh(t *testing.T) {
	api := newStubUserAPI(record("1", "Ana", "usuario"))
	store := cache.NewMemoryStore()
	s, roster := newRosterSync(api, store)
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	roster.addPending(domain.PendingMutation{
		LocalID:   "local-1",
		TargetID:  "1",
		Delta:     domain.SlotDelta{Index: 2, Value: 1},
		CreatedAt: time.Now(),
	})

	entries, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if entries[0].Attendance[2] != 1 {
		t.Fatal("pending edit should be re-applied over a stale server copy")
	}

	api.set(func(a *stubUserAPI) {
		u := a.users["1"]
		u.UpdatedAt = time.Now().Add(time.Hour)
		a.users["1"] = u
	})
	entries, _ = s.Refresh(context.Background())
	if entries[0].Attendance[2] != 0 {
		t.Fatal("a newer server copy must win over the pending edit")
	}
}

func TestRosterSync_PendingRemovalStaysHidden(t *testing.T) {
	api := newStubUserAPI(record("1", "Ana", "usuario"), record("2", "Bruno", "usuario"))
	s, roster := newRosterSync(api, cache.NewMemoryStore())
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	api.set(func(a *stubUserAPI) {
		u := a.users["2"]
		u.UpdatedAt = time.Now().Add(time.Hour)
		a.users["2"] = u
	})
	roster.addPending(domain.PendingMutation{
		LocalID:   "local-del",
		TargetID:  "2",
		Delta:     domain.RemovalDelta{},
		CreatedAt: time.Now(),
	})

	entries, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "1" {
		t.Fatalf("entry being deleted must not come back, got %+v", entries)
	}
}

func TestRosterSync_LogsFailedReapply(t *testing.T) {
	var buf bytes.Buffer
	api := newStubUserAPI(record("1", "Ana", "usuario"))
	store := cache.NewMemoryStore()
	roster := NewRosterCache(store)
	s := NewRosterSynchronizer(api, store, roster, RosterConfig{}, zerolog.New(&buf))

	roster.addPending(domain.PendingMutation{
		LocalID:   "local-bad",
		TargetID:  "1",
		Delta:     domain.SlotDelta{Index: 9, Value: 1},
		CreatedAt: time.Now(),
	})

	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !strings.Contains(buf.String(), `"mutation_id":"local-bad"`) {
		t.Fatalf("expected the failed re-apply to be logged, got %s", buf.String())
	}
}
