package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cometsur/checkin-sync/internal/core/domain"
)

// Context keys set by middleware.RequireSession.
const (
	CtxUserID   = "user_id"
	CtxUserName = "user_name"
	CtxRole     = "role"
)

// ctxOperator extracts the session identity injected by RequireSession and
// fails fast when the middleware did not run.
func ctxOperator(c echo.Context) (id string, role domain.Role, err error) {
	role, _ = c.Get(CtxRole).(domain.Role)
	if role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	id, _ = c.Get(CtxUserID).(string)
	if id == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "session missing user identity")
	}
	return id, role, nil
}
