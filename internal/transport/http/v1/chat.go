package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yfuks/avahost-tech-test/internal/domain"
	"github.com/yfuks/avahost-tech-test/internal/observability"
)

// StreamChat runs one concierge turn and streams it as server-sent events.
// POST /chat/stream
func (h *Handler) StreamChat(c echo.Context) error {
	var req domain.StreamChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	events, err := h.service.StreamChat(ctx, req)
	if err != nil {
		return h.errorResponse(c, err)
	}

	startSSE(c)
	logger := observability.FromContext(ctx, h.logger)
	for ev := range events {
		if ev.Done {
			err = writeSSERaw(c, "", domain.SSEDoneSentinel)
		} else {
			err = writeSSE(c, "", ev)
		}
		if err != nil {
			// The client is gone; the turn stops once ctx is cancelled.
			logger.Debug("chat stream write failed", "error", err)
			for range events {
			}
			return nil
		}
	}
	return nil
}
