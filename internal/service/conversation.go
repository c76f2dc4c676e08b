package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yfuks/avahost-tech-test/internal/domain"
)

// ConversationListLimit bounds GET /conversations.
const ConversationListLimit = 50

// ResolveConversation returns the conversation to append the turn to. An
// existing conversation is reused only when it belongs to guestDeviceID;
// otherwise a fresh one is created for the device.
func (s *Service) ResolveConversation(ctx context.Context, conversationID, listingID, guestDeviceID string) (*domain.Conversation, error) {
	if conversationID != "" {
		existing, err := s.store.GetConversation(ctx, conversationID)
		if err != nil {
			return nil, fmt.Errorf("failed to get conversation: %w", err)
		}
		if existing != nil && existing.OwnedBy(guestDeviceID) {
			return existing, nil
		}
	}

	now := s.now()
	conv := &domain.Conversation{
		ID:            uuid.New().String(),
		ListingID:     domain.StringPtr(listingID),
		GuestDeviceID: domain.StringPtr(guestDeviceID),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns the most recently active conversations of a
// guest device.
func (s *Service) ListConversations(ctx context.Context, guestDeviceID string) ([]domain.Conversation, error) {
	guestDeviceID = strings.TrimSpace(guestDeviceID)
	if guestDeviceID == "" {
		return nil, fmt.Errorf("%w: guest_device_id is required", domain.ErrValidation)
	}
	convs, err := s.store.ListConversationsByGuest(ctx, guestDeviceID, ConversationListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

// GetConversationMessages returns the history of a conversation in order.
// Unknown conversations yield an empty list.
func (s *Service) GetConversationMessages(ctx context.Context, conversationID string) ([]domain.ConversationMessage, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil {
		return []domain.ConversationMessage{}, nil
	}
	msgs, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if msgs == nil {
		msgs = []domain.ConversationMessage{}
	}
	return msgs, nil
}

func (s *Service) appendMessage(ctx context.Context, conversationID string, role domain.Role, content string) error {
	msg := &domain.ConversationMessage{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      s.now(),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to append %s message: %w", role, err)
	}
	return nil
}
