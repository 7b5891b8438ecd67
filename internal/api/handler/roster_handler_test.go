package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/service"
)

type stubRosterSyncer struct {
	entries    []domain.RosterEntry
	refreshErr error
	refreshed  int
}

func (s *stubRosterSyncer) Entries(context.Context) []domain.RosterEntry {
	return s.entries
}

func (s *stubRosterSyncer) Refresh(context.Context) ([]domain.RosterEntry, error) {
	s.refreshed++
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return s.entries, nil
}

func (s *stubRosterSyncer) State() service.SyncState {
	return service.StateIdle
}

func sampleRoster() []domain.RosterEntry {
	return []domain.RosterEntry{
		{ID: "a1", DisplayName: "Ana López", Email: "ana@uni.pe", ImportAmount: "150", Category: "student",
			Attendance: domain.AttendanceRecord{1, 1, 0, 0, 0, 0}},
		{ID: "b2", DisplayName: "Bruno Díaz", Email: "bruno@uni.pe", ImportAmount: "300", Category: "professional"},
	}
}

func TestRosterHandler_List_Filter(t *testing.T) {
	e := newEcho()
	h := NewRosterHandler(&stubRosterSyncer{entries: sampleRoster()})

	tests := map[string]int{
		"":          2,
		"?q=BRUNO":  1,
		"?q=a1":     1,
		"?q=uni.pe": 2,
		"?q=nadie":  0,
	}
	for query, want := range tests {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/roster"+query, nil), rec)
		if err := h.List(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		var resp rosterResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if resp.Count != want || len(resp.Entries) != want {
			t.Errorf("query %q: got %d entries, want %d", query, resp.Count, want)
		}
		if resp.State != "idle" {
			t.Errorf("state %q", resp.State)
		}
	}
}

func TestRosterHandler_Refresh(t *testing.T) {
	e := newEcho()
	sync := &stubRosterSyncer{entries: sampleRoster()}
	h := NewRosterHandler(sync)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/roster/refresh", nil), rec)
	if err := h.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if sync.refreshed != 1 || rec.Code != http.StatusOK {
		t.Fatalf("expected one refresh and 200, got %d / %d", sync.refreshed, rec.Code)
	}

	sync.refreshErr = &domain.APIError{Status: http.StatusBadGateway}
	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/roster/refresh", nil), httptest.NewRecorder())
	var apiErr *domain.APIError
	if err := h.Refresh(c); !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
}

func TestRosterHandler_Stats(t *testing.T) {
	e := newEcho()
	h := NewRosterHandler(&stubRosterSyncer{entries: sampleRoster()})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/roster/stats", nil), rec)
	if err := h.Stats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp struct {
		Attendees int                   `json:"attendees"`
		PerSlot   [domain.SlotCount]int `json:"per_slot"`
		Revenue   string                `json:"revenue"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Attendees != 2 || resp.PerSlot[0] != 1 || resp.PerSlot[1] != 1 {
		t.Errorf("unexpected stats %+v", resp)
	}
	if resp.Revenue != "450" {
		t.Errorf("revenue %q, want 450", resp.Revenue)
	}
}
