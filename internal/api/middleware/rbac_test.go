package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/cometsur/checkin-sync/internal/api/handler"
	"github.com/cometsur/checkin-sync/internal/core/domain"
)

func TestRBAC_Allows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/checkins", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(handler.CtxRole, domain.RoleModerator)

	called := false
	h := RBAC(domain.RoleModerator)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRBAC_Forbids(t *testing.T) {
	// A plain string is not a domain.Role, so it must not pass either.
	for _, role := range []any{domain.RoleAttendee, nil, "moderator"} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/v1/checkins", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		if role != nil {
			c.Set(handler.CtxRole, role)
		}

		h := RBAC(domain.RoleModerator)(func(c echo.Context) error {
			t.Fatalf("should not reach next handler")
			return nil
		})

		if err := h(c); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("role %v: expected ErrForbidden, got %v", role, err)
		}
	}
}
