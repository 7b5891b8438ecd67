package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/service"
)

// SessionSyncer refreshes the cached session and exposes its change signal.
type SessionSyncer interface {
	Refresh(ctx context.Context) error
	Signal() domain.ChangeSignal
	State() service.SyncState
}

type SessionHandler struct {
	auth Authenticator
	sync SessionSyncer
}

func NewSessionHandler(auth Authenticator, sync SessionSyncer) *SessionHandler {
	return &SessionHandler{auth: auth, sync: sync}
}

// Get returns the cached session.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	user, err := h.auth.Current(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{User: user, State: h.sync.State().String()})
}

// Refresh pulls the logged-in user from the server right away.
//
// @Summary      Refresh session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/session/refresh [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.sync.Refresh(ctx); err != nil {
		return err
	}
	user, err := h.auth.Current(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{User: user, State: h.sync.State().String()})
}

// Changes returns the change signal raised by the last refresh, if it is
// still within its display window.
//
// @Summary      Session change signal
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.ChangeSignal
// @Router       /v1/session/changes [get]
func (h *SessionHandler) Changes(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sync.Signal())
}
