// Package v1 provides the HTTP handlers of the concierge API.
package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/yfuks/avahost-tech-test/internal/auth"
	"github.com/yfuks/avahost-tech-test/internal/service"
)

const defaultSSEKeepAlive = 15 * time.Second

// Options configures a Handler.
type Options struct {
	Verifier       *auth.AdminVerifier
	SSEKeepAlive   time.Duration
	AllowedOrigins []string
	Version        string
	Logger         *slog.Logger
}

// Handler handles HTTP requests.
type Handler struct {
	service   *service.Service
	verifier  *auth.AdminVerifier
	keepAlive time.Duration
	version   string
	upgrader  websocket.Upgrader
	logger    *slog.Logger
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, opts Options) *Handler {
	if opts.Verifier == nil {
		opts.Verifier = auth.NewAdminVerifier("")
	}
	if opts.SSEKeepAlive <= 0 {
		opts.SSEKeepAlive = defaultSSEKeepAlive
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{
		service:   service,
		verifier:  opts.Verifier,
		keepAlive: opts.SSEKeepAlive,
		version:   opts.Version,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
		logger: opts.Logger.With("component", "http"),
	}
}

// RegisterRoutes registers the API routes with the echo server. chatLimiter
// guards the chat stream only.
func (h *Handler) RegisterRoutes(e *echo.Echo, chatLimiter echo.MiddlewareFunc) {
	// Chat
	e.POST("/chat/stream", h.StreamChat, chatLimiter)

	// Tickets. Sub-resources are declared before :id.
	e.POST("/tickets", h.CreateTicket)
	e.GET("/tickets", h.ListTickets)
	e.GET("/tickets/:id/updates", h.StreamTicketUpdates)
	e.GET("/tickets/:id/ws", h.TicketWebSocket)
	e.GET("/tickets/:id/conversation-messages", h.GetTicketConversationMessages, h.RequireAdmin)
	e.GET("/tickets/:id", h.GetTicket)
	e.PATCH("/tickets/:id", h.UpdateTicket, h.RequireAdmin)

	// Conversations
	e.GET("/conversations", h.ListConversations)
	e.GET("/conversations/:id/messages", h.GetConversationMessages)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	if err := h.service.Ping(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "degraded",
			"version": h.version,
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
