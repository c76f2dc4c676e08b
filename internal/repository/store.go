// Package store defines the record store interface and its SQLite implementation.
package store

import (
	"context"
	"time"

	"github.com/yfuks/avahost-tech-test/internal/domain"
)

// Store defines the interface for data persistence.
type Store interface {
	// Conversation operations
	CreateConversation(ctx context.Context, conv *domain.Conversation) error
	GetConversation(ctx context.Context, conversationID string) (*domain.Conversation, error)
	ListConversationsByGuest(ctx context.Context, guestDeviceID string, limit int) ([]domain.Conversation, error)

	// Message operations
	AppendMessage(ctx context.Context, msg *domain.ConversationMessage) error
	ListMessages(ctx context.Context, conversationID string) ([]domain.ConversationMessage, error)

	// Ticket operations
	CreateTicket(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, bool, error)
	GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error)
	GetOpenTicketByConversation(ctx context.Context, conversationID string) (*domain.Ticket, error)
	ListTickets(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error)
	UpdateTicketStatus(ctx context.Context, ticketID string, from, to domain.TicketStatus, updatedAt time.Time) (*domain.Ticket, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
