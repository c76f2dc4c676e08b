package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yfuks/avahost-tech-test/internal/domain"
	"github.com/yfuks/avahost-tech-test/internal/observability"
)

// CreateTicket opens a ticket. When the conversation already has an open
// ticket, that ticket is returned instead.
func (s *Service) CreateTicket(ctx context.Context, req domain.CreateTicketRequest) (*domain.Ticket, error) {
	req.ListingID = strings.TrimSpace(req.ListingID)
	req.ConversationID = strings.TrimSpace(req.ConversationID)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.ConversationID != "" {
		conv, err := s.store.GetConversation(ctx, req.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("failed to get conversation: %w", err)
		}
		if conv == nil {
			return nil, fmt.Errorf("%w: unknown conversation_id", domain.ErrValidation)
		}
	}

	ticket, created, err := s.store.CreateTicket(ctx, &domain.Ticket{
		ID:             uuid.New().String(),
		ListingID:      req.ListingID,
		Category:       req.Category,
		Status:         domain.TicketStatusCreated,
		UpdatedAt:      s.now(),
		ConversationID: domain.StringPtr(req.ConversationID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	logger := observability.FromContext(ctx, s.logger)
	if created {
		logger.Info("ticket created", "ticket_id", ticket.ID, "category", ticket.Category, "listing_id", ticket.ListingID)
	} else {
		logger.Info("open ticket reused", "ticket_id", ticket.ID, "conversation_id", req.ConversationID)
	}
	return ticket, nil
}

// GetTicket returns a ticket or domain.ErrNotFound.
func (s *Service) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("ticket %w", domain.ErrNotFound)
	}
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return nil, fmt.Errorf("ticket %w", domain.ErrNotFound)
	}
	return ticket, nil
}

// ListTickets returns tickets matching filter, most recently updated first.
func (s *Service) ListTickets(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	filter.ConversationID = strings.TrimSpace(filter.ConversationID)
	filter.GuestDeviceID = strings.TrimSpace(filter.GuestDeviceID)
	tickets, err := s.store.ListTickets(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// updateAttempts bounds the re-reads when a concurrent update wins.
const updateAttempts = 3

// UpdateTicketStatus moves a ticket along its lifecycle and notifies live
// subscribers with the stored snapshot. Re-applying the current status is
// accepted and still notifies. The write only applies to the status the
// transition was checked against, so concurrent updates cannot move a
// ticket backward.
func (s *Service) UpdateTicketStatus(ctx context.Context, ticketID string, req domain.UpdateTicketRequest) (*domain.Ticket, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var current, updated *domain.Ticket
	for attempt := 0; updated == nil; attempt++ {
		if attempt == updateAttempts {
			return nil, fmt.Errorf("%w: ticket %s is being updated concurrently", domain.ErrInvalidTransition, ticketID)
		}
		var err error
		current, err = s.GetTicket(ctx, ticketID)
		if err != nil {
			return nil, err
		}
		if !current.Status.CanTransitionTo(req.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, req.Status)
		}
		updated, err = s.store.UpdateTicketStatus(ctx, ticketID, current.Status, req.Status, s.now())
		if err != nil {
			return nil, fmt.Errorf("failed to update ticket: %w", err)
		}
	}

	observability.FromContext(ctx, s.logger).Info("ticket status updated",
		"ticket_id", updated.ID,
		"from", current.Status,
		"to", updated.Status)

	if s.broadcaster != nil {
		s.broadcaster.Publish(*updated)
	}
	return updated, nil
}

// GetTicketConversationMessages returns the chat history behind a ticket.
// Tickets opened outside a conversation have an empty history.
func (s *Service) GetTicketConversationMessages(ctx context.Context, ticketID string) ([]domain.ConversationMessage, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.ConversationID == nil {
		return []domain.ConversationMessage{}, nil
	}
	return s.GetConversationMessages(ctx, *ticket.ConversationID)
}

// WatchTicket subscribes to a ticket and returns its current snapshot with
// the channel of later snapshots. The subscription is released by calling
// stop or cancelling ctx; the channel is closed afterwards.
func (s *Service) WatchTicket(ctx context.Context, ticketID string) (*domain.Ticket, <-chan domain.Ticket, context.CancelFunc, error) {
	if s.broadcaster == nil {
		return nil, nil, nil, errors.New("ticket updates are not enabled")
	}
	subCtx, stop := context.WithCancel(ctx)
	updates, _ := s.broadcaster.Subscribe(subCtx, ticketID)

	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	return ticket, updates, stop, nil
}
