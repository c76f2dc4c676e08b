package v1

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yfuks/avahost-tech-test/internal/domain"
)

// ListConversations lists a guest device's conversations.
// GET /conversations?guest_device_id=
func (h *Handler) ListConversations(c echo.Context) error {
	deviceID := c.QueryParam("guest_device_id")
	if deviceID == "" {
		return h.errorResponse(c, fmt.Errorf("%w: guest_device_id is required", domain.ErrValidation))
	}
	convs, err := h.service.ListConversations(c.Request().Context(), deviceID)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, convs)
}

// GetConversationMessages returns a conversation's history, oldest first.
// GET /conversations/:id/messages
func (h *Handler) GetConversationMessages(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return h.errorResponse(c, err)
	}
	msgs, err := h.service.GetConversationMessages(c.Request().Context(), id)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, msgs)
}
