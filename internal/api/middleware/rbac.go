package middleware

import (
	"fmt"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/cometsur/checkin-sync/internal/api/handler"
	"github.com/cometsur/checkin-sync/internal/core/domain"
)

// RBAC admits the request only when the role RequireSession put on the
// context is one of allowed. Denials surface as domain.ErrForbidden.
func RBAC(allowed ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(handler.CtxRole).(domain.Role)
			if !slices.Contains(allowed, role) {
				return fmt.Errorf("%s %s as %q: %w", c.Request().Method, c.Path(), role, domain.ErrForbidden)
			}
			return next(c)
		}
	}
}
