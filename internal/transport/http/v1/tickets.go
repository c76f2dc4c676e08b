package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yfuks/avahost-tech-test/internal/domain"
	"github.com/yfuks/avahost-tech-test/internal/observability"
)

// CreateTicket opens a ticket, or returns the conversation's open ticket.
// POST /tickets
func (h *Handler) CreateTicket(c echo.Context) error {
	var req domain.CreateTicketRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	ticket, err := h.service.CreateTicket(c.Request().Context(), req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, ticket)
}

// ListTickets lists tickets. Without a conversation_id or guest_device_id
// filter the caller must be an admin.
// GET /tickets
func (h *Handler) ListTickets(c echo.Context) error {
	filter := domain.TicketFilter{
		ConversationID: strings.TrimSpace(c.QueryParam("conversation_id")),
		GuestDeviceID:  strings.TrimSpace(c.QueryParam("guest_device_id")),
	}
	if filter.Empty() {
		if _, err := h.authenticate(c); err != nil {
			return h.errorResponse(c, err)
		}
	}
	tickets, err := h.service.ListTickets(c.Request().Context(), filter)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, tickets)
}

// GetTicket returns a ticket.
// GET /tickets/:id
func (h *Handler) GetTicket(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return h.errorResponse(c, err)
	}
	ticket, err := h.service.GetTicket(c.Request().Context(), id)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}

// UpdateTicket changes a ticket status and notifies its watchers.
// PATCH /tickets/:id
func (h *Handler) UpdateTicket(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return h.errorResponse(c, err)
	}
	var req domain.UpdateTicketRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	ticket, err := h.service.UpdateTicketStatus(c.Request().Context(), id, req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}

// GetTicketConversationMessages returns the chat history behind a ticket.
// GET /tickets/:id/conversation-messages
func (h *Handler) GetTicketConversationMessages(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return h.errorResponse(c, err)
	}
	msgs, err := h.service.GetTicketConversationMessages(c.Request().Context(), id)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, msgs)
}

// StreamTicketUpdates streams ticket snapshots as server-sent events, the
// current one first, until the client disconnects.
// GET /tickets/:id/updates
func (h *Handler) StreamTicketUpdates(c echo.Context) error {
	ctx := c.Request().Context()
	ticketID, err := pathID(c)
	if err != nil {
		return h.errorResponse(c, err)
	}

	ticket, updates, stop, err := h.service.WatchTicket(ctx, ticketID)
	if err != nil {
		return h.errorResponse(c, err)
	}
	defer stop()

	logger := observability.FromContext(ctx, h.logger).With("ticket_id", ticketID)
	logger.Debug("ticket stream opened")

	startSSE(c)
	if err := writeSSE(c, domain.SSEEventTicketUpdate, ticket); err != nil {
		return nil
	}

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("ticket stream closed")
			return nil
		case t, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeSSE(c, domain.SSEEventTicketUpdate, t); err != nil {
				logger.Debug("ticket stream write failed", "error", err)
				return nil
			}
		case <-keepAlive.C:
			if err := writeSSEComment(c, "keep-alive"); err != nil {
				return nil
			}
		}
	}
}
