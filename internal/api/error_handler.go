package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cometsur/checkin-sync/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Passes the conference API's own rejection message through.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrNotLoggedIn), errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUnrecognizedRole):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound, "attendee not found"
	case errors.Is(err, domain.ErrDuplicateEmail), errors.Is(err, domain.ErrDuplicateVoucher):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidSlot):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrNoChanges), errors.Is(err, domain.ErrEmptyMessage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotConnected):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, domain.ErrIncompleteReply):
		return http.StatusBadGateway, err.Error()
	}

	// Rejections from the conference API keep their status and wording.
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= 500 {
			log.Warn().Err(err).Str("path", c.Path()).Msg("conference api failure")
			return http.StatusBadGateway, "conference api unavailable"
		}
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.Status)
		}
		return apiErr.Status, msg
	}
	if domain.IsTransient(err) {
		log.Warn().Err(err).Str("path", c.Path()).Msg("conference api unreachable")
		return http.StatusBadGateway, "conference api unreachable"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
