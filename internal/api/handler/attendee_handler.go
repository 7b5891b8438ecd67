package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cometsur/checkin-sync/internal/core/domain"
)

// RosterReader reads the cached roster.
type RosterReader interface {
	Entries(ctx context.Context) []domain.RosterEntry
}

// Mutator applies an edit optimistically and reconciles it with the server.
type Mutator interface {
	Apply(ctx context.Context, targetID string, delta domain.FieldDelta) (*domain.MutationOutcome, error)
}

type AttendeeHandler struct {
	roster  RosterReader
	mutator Mutator
}

func NewAttendeeHandler(roster RosterReader, mutator Mutator) *AttendeeHandler {
	return &AttendeeHandler{roster: roster, mutator: mutator}
}

// Update handles PUT /v1/attendees/:id. Blank fields and values equal to the
// cached ones are left out of the edit.
//
// @Summary      Edit an attendee profile
// @Tags         attendees
// @Accept       json
// @Produce      json
// @Security     Session
// @Param        id    path      string                 true  "Attendee id"
// @Param        body  body      attendeeUpdateRequest  true  "Profile fields"
// @Success      200   {object}  mutationResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/attendees/{id} [put]
func (h *AttendeeHandler) Update(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "attendee id is required")
	}

	var req attendeeUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	entries := h.roster.Entries(ctx)
	i := domain.FindEntry(entries, id)
	if i < 0 {
		return domain.ErrEntryNotFound
	}

	delta := domain.NewProfileDelta(entries[i], req.Name, req.Email, req.Password)
	outcome, err := h.mutator.Apply(ctx, id, delta)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mutationResponse{
		MutationID: outcome.LocalID,
		Reconciled: outcome.Reconciled,
		Entry:      outcome.Entry,
	})
}

// Delete handles DELETE /v1/attendees/:id. The attendee leaves the cached
// roster at once and comes back if the server refuses.
//
// @Summary      Delete an attendee
// @Tags         attendees
// @Produce      json
// @Security     Session
// @Param        id   path      string  true  "Attendee id"
// @Success      200  {object}  mutationResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/attendees/{id} [delete]
func (h *AttendeeHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "attendee id is required")
	}

	outcome, err := h.mutator.Apply(c.Request().Context(), id, domain.RemovalDelta{})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mutationResponse{
		MutationID: outcome.LocalID,
		Removed:    outcome.Removed,
		Entry:      outcome.Entry,
	})
}
