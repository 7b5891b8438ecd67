package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/service"
)

// RosterSyncer serves and refreshes the cached roster.
type RosterSyncer interface {
	Entries(ctx context.Context) []domain.RosterEntry
	Refresh(ctx context.Context) ([]domain.RosterEntry, error)
	State() service.SyncState
}

type RosterHandler struct {
	sync RosterSyncer
}

func NewRosterHandler(sync RosterSyncer) *RosterHandler {
	return &RosterHandler{sync: sync}
}

// List returns the cached roster, optionally filtered by ?q= on name, email
// or id.
//
// @Summary      List attendees
// @Tags         roster
// @Produce      json
// @Security     Session
// @Param        q    query     string  false  "Case-insensitive search"
// @Success      200  {object}  rosterResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/roster [get]
func (h *RosterHandler) List(c echo.Context) error {
	entries := filterRoster(h.sync.Entries(c.Request().Context()), c.QueryParam("q"))
	return c.JSON(http.StatusOK, rosterResponse{
		Count:   len(entries),
		State:   h.sync.State().String(),
		Entries: entries,
	})
}

// Refresh fetches the roster from the server now. When a refresh is already
// running the cached roster is returned.
//
// @Summary      Refresh roster
// @Tags         roster
// @Produce      json
// @Security     Session
// @Success      200  {object}  rosterResponse
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/roster/refresh [post]
func (h *RosterHandler) Refresh(c echo.Context) error {
	entries, err := h.sync.Refresh(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rosterResponse{
		Count:   len(entries),
		State:   h.sync.State().String(),
		Entries: entries,
	})
}

// Stats aggregates attendance and revenue over the cached roster.
//
// @Summary      Roster statistics
// @Tags         roster
// @Produce      json
// @Security     Session
// @Success      200  {object}  statsResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/roster/stats [get]
func (h *RosterHandler) Stats(c echo.Context) error {
	summary := service.Summarize(h.sync.Entries(c.Request().Context()))
	return c.JSON(http.StatusOK, statsResponse{Summary: summary})
}

func filterRoster(entries []domain.RosterEntry, q string) []domain.RosterEntry {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return entries
	}
	out := make([]domain.RosterEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.DisplayName), q) ||
			strings.Contains(strings.ToLower(e.Email), q) ||
			strings.Contains(strings.ToLower(e.ID), q) {
			out = append(out, e)
		}
	}
	return out
}
