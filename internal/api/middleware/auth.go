package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cometsur/checkin-sync/internal/api/handler"
	"github.com/cometsur/checkin-sync/internal/core/domain"
)

// SessionReader returns the cached session.
type SessionReader interface {
	Current(ctx context.Context) (domain.UserSnapshot, error)
}

// RequireSession rejects requests while nobody is logged in and injects the
// session identity into the context.
func RequireSession(sessions SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap, err := sessions.Current(c.Request().Context())
			if err != nil || !snap.Authenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, "login required")
			}

			c.Set(handler.CtxUserID, snap.ID)
			c.Set(handler.CtxUserName, snap.DisplayName)
			c.Set(handler.CtxRole, snap.Role)

			return next(c)
		}
	}
}
