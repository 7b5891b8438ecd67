package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/cometsur/checkin-sync/internal/api/handler"
	"github.com/cometsur/checkin-sync/internal/core/domain"
)

type stubSessions struct {
	snap domain.UserSnapshot
	err  error
}

func (s stubSessions) Current(context.Context) (domain.UserSnapshot, error) {
	return s.snap, s.err
}

func TestRequireSession_Valid(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	mw := RequireSession(stubSessions{snap: domain.UserSnapshot{ID: "u1", DisplayName: "Ana", Role: domain.RoleModerator, Token: "tok"}})
	h := mw(func(c echo.Context) error {
		called = true
		if c.Get(handler.CtxUserID) != "u1" {
			t.Fatalf("user_id not set")
		}
		if c.Get(handler.CtxRole) != domain.RoleModerator {
			t.Fatalf("role not set")
		}
		if c.Get(handler.CtxUserName) != "Ana" {
			t.Fatalf("user_name not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireSession_NoSession(t *testing.T) {
	tests := []struct {
		name     string
		sessions stubSessions
	}{
		{"logged out", stubSessions{err: domain.ErrNotLoggedIn}},
		{"missing role", stubSessions{snap: domain.UserSnapshot{ID: "u1", Token: "tok"}}},
		{"missing token", stubSessions{snap: domain.UserSnapshot{ID: "u1", Role: domain.RoleAttendee}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			h := RequireSession(tt.sessions)(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			if err := h(c); err != nil {
				e.HTTPErrorHandler(err, c)
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}
