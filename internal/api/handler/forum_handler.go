package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cometsur/checkin-sync/internal/core/domain"
)

// ForumRoom is the live forum as seen from this desk.
type ForumRoom interface {
	Connected() bool
	Messages() []domain.ForumMessage
	Send(ctx context.Context, text string) (domain.ForumMessage, error)
}

type ForumHandler struct {
	forum ForumRoom
}

func NewForumHandler(forum ForumRoom) *ForumHandler {
	return &ForumHandler{forum: forum}
}

// List returns the visible forum messages, oldest first.
//
// @Summary      Forum messages
// @Tags         forum
// @Produce      json
// @Security     Session
// @Success      200  {object}  forumResponse
// @Router       /v1/forum/messages [get]
func (h *ForumHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, forumResponse{
		Connected: h.forum.Connected(),
		Messages:  h.forum.Messages(),
	})
}

// Send posts a message to the forum. The returned message is pending until
// the server echoes it.
//
// @Summary      Post to the forum
// @Tags         forum
// @Accept       json
// @Produce      json
// @Security     Session
// @Param        body  body      forumMessageRequest  true  "Message"
// @Success      202   {object}  domain.ForumMessage
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/forum/messages [post]
func (h *ForumHandler) Send(c echo.Context) error {
	var req forumMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	msg, err := h.forum.Send(c.Request().Context(), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, msg)
}
