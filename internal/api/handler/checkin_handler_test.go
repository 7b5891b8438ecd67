package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
)

type stubCheckinService struct {
	scanFn func(ctx context.Context, in ports.ScanInput) (*ports.CheckinResult, error)
}

func (s *stubCheckinService) Scan(ctx context.Context, in ports.ScanInput) (*ports.CheckinResult, error) {
	return s.scanFn(ctx, in)
}

type stubDispatcher struct {
	batches [][]ports.ScanInput
	err     error
}

func (d *stubDispatcher) Enqueue(scan ports.ScanInput) error {
	if d.err != nil {
		return d.err
	}
	d.batches = append(d.batches, []ports.ScanInput{scan})
	return nil
}

func (d *stubDispatcher) EnqueueBatch(scans []ports.ScanInput) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	d.batches = append(d.batches, scans)
	return len(scans), nil
}

func withOperator(c echo.Context) echo.Context {
	c.Set(CtxUserID, "op1")
	c.Set(CtxRole, domain.RoleModerator)
	return c
}

func TestCheckinHandler_Scan_Success(t *testing.T) {
	e := newEcho()
	svc := &stubCheckinService{
		scanFn: func(ctx context.Context, in ports.ScanInput) (*ports.CheckinResult, error) {
			if in.Code != "abc" || in.Day != 2 || in.Turn != domain.TurnAfternoon || in.Operator != "op1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.CheckinResult{Entry: domain.RosterEntry{ID: "abc"}, Slot: 3, MutationID: "local-1"}, nil
		},
	}
	h := NewCheckinHandler(svc, &stubDispatcher{})

	rec := httptest.NewRecorder()
	c := withOperator(e.NewContext(jsonRequest(http.MethodPost, "/v1/checkins", `{"code":"abc","day":2,"turn":"afternoon"}`), rec))

	if err := h.Scan(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCheckinHandler_Scan_Validation(t *testing.T) {
	e := newEcho()
	svc := &stubCheckinService{
		scanFn: func(ctx context.Context, in ports.ScanInput) (*ports.CheckinResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewCheckinHandler(svc, &stubDispatcher{})

	tests := []string{
		`{"code":"","day":1,"turn":"morning"}`,
		`{"code":"abc","day":4,"turn":"morning"}`,
		`{"code":"abc","day":1,"turn":"evening"}`,
	}
	for _, body := range tests {
		c := withOperator(e.NewContext(jsonRequest(http.MethodPost, "/v1/checkins", body), httptest.NewRecorder()))
		err := h.Scan(c)
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: expected 422, got %v", body, err)
		}
	}
}

func TestCheckinHandler_Scan_RequiresSession(t *testing.T) {
	e := newEcho()
	h := NewCheckinHandler(&stubCheckinService{}, &stubDispatcher{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/checkins", `{"code":"abc","day":1,"turn":"morning"}`), httptest.NewRecorder())
	err := h.Scan(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestCheckinHandler_Scan_NotFound(t *testing.T) {
	e := newEcho()
	svc := &stubCheckinService{
		scanFn: func(ctx context.Context, in ports.ScanInput) (*ports.CheckinResult, error) {
			return nil, domain.ErrEntryNotFound
		},
	}
	h := NewCheckinHandler(svc, &stubDispatcher{})

	c := withOperator(e.NewContext(jsonRequest(http.MethodPost, "/v1/checkins", `{"code":"zzz","day":1,"turn":"morning"}`), httptest.NewRecorder()))
	if err := h.Scan(c); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestCheckinHandler_ScanBatch(t *testing.T) {
	e := newEcho()
	disp := &stubDispatcher{}
	h := NewCheckinHandler(&stubCheckinService{}, disp)

	rec := httptest.NewRecorder()
	body := `[{"code":"a","day":1,"turn":"morning"},{"code":"b","day":3,"turn":"afternoon"}]`
	c := withOperator(e.NewContext(jsonRequest(http.MethodPost, "/v1/checkins/batch", body), rec))

	if err := h.ScanBatch(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(disp.batches) != 1 || len(disp.batches[0]) != 2 {
		t.Fatalf("expected one batch of two, got %+v", disp.batches)
	}
	if disp.batches[0][1].Operator != "op1" || disp.batches[0][1].Turn != domain.TurnAfternoon {
		t.Fatalf("unexpected scan: %+v", disp.batches[0][1])
	}
}

func TestCheckinHandler_ScanBatch_Rejects(t *testing.T) {
	e := newEcho()
	disp := &stubDispatcher{}
	h := NewCheckinHandler(&stubCheckinService{}, disp)

	tests := []struct {
		body string
		want int
	}{
		{`[]`, http.StatusBadRequest},
		{`not-json`, http.StatusBadRequest},
		{`[{"code":"a","day":1,"turn":"morning"},{"code":"b","day":9,"turn":"morning"}]`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		c := withOperator(e.NewContext(jsonRequest(http.MethodPost, "/v1/checkins/batch", tt.body), httptest.NewRecorder()))
		err := h.ScanBatch(c)
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != tt.want {
			t.Errorf("%s: expected %d, got %v", tt.body, tt.want, err)
		}
	}
	if len(disp.batches) != 0 {
		t.Fatalf("nothing should be enqueued, got %+v", disp.batches)
	}
}

func TestCheckinHandler_ScanBatch_QueueStopped(t *testing.T) {
	e := newEcho()
	h := NewCheckinHandler(&stubCheckinService{}, &stubDispatcher{err: errors.New("check-in queue stopped")})

	body := `[{"code":"a","day":1,"turn":"morning"}]`
	c := withOperator(e.NewContext(jsonRequest(http.MethodPost, "/v1/checkins/batch", body), httptest.NewRecorder()))

	err := h.ScanBatch(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %v", err)
	}
}
