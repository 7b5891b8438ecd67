package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
	"github.com/cometsur/checkin-sync/internal/infrastructure/cache"
)

// ---------------------------------------------------------------------------
// Stub remote API: an in-memory server that applies PUTs to its own records.
// ---------------------------------------------------------------------------

type stubUserAPI struct {
	mu    sync.Mutex
	users map[string]ports.UserRecord
	clock time.Time

	loginToken string
	loginErr   error

	fetchUserErr error
	renewToken   string
	rosterErr    error
	updateErr    error
	deleteErr    error
	echo         bool

	registerID  string
	registerErr error
	registered  []ports.RegisterRequest

	// gate, when set, holds FetchUser and FetchRoster until closed.
	gate    chan struct{}
	entered chan struct{}

	// onUpdate runs at the start of UpdateUser, outside the stub's lock.
	onUpdate func()

	fetchUserCalls   int
	fetchRosterCalls int
	updates          []domain.FieldDelta
	deletes          []string
}

func newStubUserAPI(records ...ports.UserRecord) *stubUserAPI {
	api := &stubUserAPI{
		users: make(map[string]ports.UserRecord),
		clock: time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC),
	}
	for _, r := range records {
		api.users[r.ID] = r
	}
	return api
}

func record(id, name, estado string, attendance ...int) ports.UserRecord {
	raw, _ := json.Marshal(attendance)
	if attendance == nil {
		raw = nil
	}
	return ports.UserRecord{ID: id, Name: name, Estado: estado, Email: id + "@example.com", Attendance: raw}
}

func (a *stubUserAPI) wait() {
	a.mu.Lock()
	gate, entered := a.gate, a.entered
	a.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
}

func (a *stubUserAPI) Login(_ context.Context, email, _ string) (*ports.LoginResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loginErr != nil {
		return nil, a.loginErr
	}
	for _, u := range a.users {
		if u.Email == email {
			return &ports.LoginResult{Token: a.loginToken, User: u}, nil
		}
	}
	return nil, &domain.APIError{Status: 401, Message: "credenciales invalidas"}
}

func (a *stubUserAPI) Register(_ context.Context, req ports.RegisterRequest) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.registerErr != nil {
		return "", a.registerErr
	}
	a.registered = append(a.registered, req)
	return a.registerID, nil
}

func (a *stubUserAPI) FetchUser(_ context.Context, _, id string) (*ports.UserPayload, error) {
	a.wait()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetchUserCalls++
	if a.fetchUserErr != nil {
		return nil, a.fetchUserErr
	}
	u, ok := a.users[id]
	if !ok {
		return nil, &domain.APIError{Status: 404, Message: "usuario no encontrado"}
	}
	return &ports.UserPayload{User: u, Token: a.renewToken}, nil
}

func (a *stubUserAPI) FetchRoster(_ context.Context, _ string) ([]ports.UserRecord, error) {
	a.wait()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetchRosterCalls++
	if a.rosterErr != nil {
		return nil, a.rosterErr
	}
	out := make([]ports.UserRecord, 0, len(a.users))
	for _, u := range a.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *stubUserAPI) UpdateUser(_ context.Context, _, id string, delta domain.FieldDelta) (*ports.UserRecord, error) {
	if a.onUpdate != nil {
		a.onUpdate()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.updates = append(a.updates, delta)
	if a.updateErr != nil {
		return nil, a.updateErr
	}
	u, ok := a.users[id]
	if !ok {
		return nil, &domain.APIError{Status: 404, Message: "usuario no encontrado"}
	}

	switch d := delta.(type) {
	case domain.SlotDelta:
		att := domain.NormalizeAttendance(u.Attendance)
		att[d.Index] = d.Value
		u.Attendance, _ = json.Marshal(att)
	case domain.ProfileDelta:
		if d.Name != nil {
			u.Name = *d.Name
		}
		if d.Email != nil {
			u.Email = *d.Email
		}
	}
	a.clock = a.clock.Add(time.Second)
	u.UpdatedAt = a.clock
	a.users[id] = u

	if !a.echo {
		return nil, nil
	}
	out := u
	return &out, nil
}

func (a *stubUserAPI) DeleteUser(_ context.Context, _, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deletes = append(a.deletes, id)
	if a.deleteErr != nil {
		return a.deleteErr
	}
	if _, ok := a.users[id]; !ok {
		return &domain.APIError{Status: 404, Message: "usuario no encontrado"}
	}
	delete(a.users, id)
	return nil
}

func (a *stubUserAPI) set(fn func(a *stubUserAPI)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func seedSession(t *testing.T, store ports.CacheStore, snap domain.UserSnapshot) {
	t.Helper()
	if err := writeSession(context.Background(), store, snap, time.Now()); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func seedRoster(t *testing.T, store ports.CacheStore, entries ...domain.RosterEntry) {
	t.Helper()
	if err := cache.WriteJSON(context.Background(), store, cache.KeyRoster, entries); err != nil {
		t.Fatalf("seed roster: %v", err)
	}
}

type stubJournal struct {
	mu     sync.Mutex
	err    error
	events []domain.CheckinEvent
}

func (j *stubJournal) Record(_ context.Context, e domain.CheckinEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
	return j.err
}

type stubDedup struct {
	dupResult bool
	dupErr    error
	marked    []string
	forgotten []string
}

func (d *stubDedup) IsDuplicate(context.Context, string, int) (bool, error) {
	return d.dupResult, d.dupErr
}

func (d *stubDedup) Mark(_ context.Context, attendeeID string, slot int, _ time.Duration) error {
	d.marked = append(d.marked, cache.DedupKey(attendeeID, slot))
	return nil
}

func (d *stubDedup) Forget(_ context.Context, attendeeID string, slot int) error {
	d.forgotten = append(d.forgotten, cache.DedupKey(attendeeID, slot))
	return nil
}
