package v1

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/yfuks/avahost-tech-test/internal/domain"
	"github.com/yfuks/avahost-tech-test/internal/observability"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 512
)

// TicketUpdateMessage is the websocket frame pushed for every snapshot.
type TicketUpdateMessage struct {
	Type   string        `json:"type"`
	Ticket domain.Ticket `json:"ticket"`
}

// TicketWebSocket pushes ticket snapshots over a websocket, the current one
// first. Client frames are ignored.
// GET /tickets/:id/ws
func (h *Handler) TicketWebSocket(c echo.Context) error {
	ticketID, err := pathID(c)
	if err != nil {
		return h.errorResponse(c, err)
	}
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	ticket, updates, stop, err := h.service.WatchTicket(ctx, ticketID)
	if err != nil {
		return h.errorResponse(c, err)
	}
	defer stop()

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already replied.
		h.logger.Warn("websocket upgrade failed", "ticket_id", ticketID, "error", err)
		return nil
	}
	defer conn.Close()

	logger := observability.FromContext(ctx, h.logger).With("ticket_id", ticketID)
	logger.Debug("ticket websocket opened")

	go h.wsReadPump(conn, cancel)
	h.wsWritePump(ctx, conn, ticket, updates, logger)
	return nil
}

// wsReadPump discards client frames and cancels the stream when the peer
// goes away.
func (h *Handler) wsReadPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) wsWritePump(ctx context.Context, conn *websocket.Conn, first *domain.Ticket, updates <-chan domain.Ticket, logger *slog.Logger) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	write := func(t domain.Ticket) bool {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(TicketUpdateMessage{Type: domain.SSEEventTicketUpdate, Ticket: t}); err != nil {
			logger.Debug("ticket websocket write failed", "error", err)
			return false
		}
		return true
	}

	if !write(*first) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			logger.Debug("ticket websocket closed")
			return
		case t, ok := <-updates:
			if !ok {
				return
			}
			if !write(t) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
