package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/service"
)

// Authenticator owns the cached session.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (domain.UserSnapshot, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (domain.UserSnapshot, error)
}

// Registrar creates attendee accounts.
type Registrar interface {
	Register(ctx context.Context, in service.RegistrationInput) (string, error)
}

type AuthHandler struct {
	auth      Authenticator
	registrar Registrar
}

func NewAuthHandler(auth Authenticator, registrar Registrar) *AuthHandler {
	return &AuthHandler{auth: auth, registrar: registrar}
}

// Login authenticates against the conference API and caches the session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{User: user})
}

// Logout drops the cached session. The roster stays cached.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.auth.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Register creates a new attendee account.
//
// @Summary      Register an attendee
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      service.RegistrationInput  true  "Attendee registration"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegistrationInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	id, err := h.registrar.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, registerResponse{ID: id})
}
