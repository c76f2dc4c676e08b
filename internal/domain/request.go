package domain

import (
	"fmt"
	"unicode/utf8"
)

const (
	// MaxChatMessages bounds the history a client may send in one request.
	MaxChatMessages = 50
	// MaxMessageLength bounds a single message before sanitization.
	MaxMessageLength = 16384
	// MaxIdentifierLength bounds opaque identifiers supplied by clients.
	MaxIdentifierLength = 128
)

// ChatMessageInput is one entry of the chat history sent by a client.
// Roles are not supplied; they are derived from position.
type ChatMessageInput struct {
	Content string `json:"content"`
}

// StreamChatRequest is the body of POST /chat/stream.
type StreamChatRequest struct {
	Messages       []ChatMessageInput `json:"messages"`
	ConversationID string             `json:"conversation_id,omitempty"`
	ListingID      string             `json:"listing_id,omitempty"`
	GuestDeviceID  string             `json:"guest_device_id,omitempty"`
}

// Validate checks the request bounds.
func (r *StreamChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("%w: messages must contain at least 1 entry", ErrValidation)
	}
	if len(r.Messages) > MaxChatMessages {
		return fmt.Errorf("%w: messages must contain at most %d entries", ErrValidation, MaxChatMessages)
	}
	for i, m := range r.Messages {
		if utf8.RuneCountInString(m.Content) > MaxMessageLength {
			return fmt.Errorf("%w: messages[%d].content exceeds %d characters", ErrValidation, i, MaxMessageLength)
		}
	}
	if err := validateIdentifier("conversation_id", r.ConversationID); err != nil {
		return err
	}
	if err := validateIdentifier("listing_id", r.ListingID); err != nil {
		return err
	}
	return validateIdentifier("guest_device_id", r.GuestDeviceID)
}

// CreateTicketRequest is the body of POST /tickets.
type CreateTicketRequest struct {
	ListingID      string         `json:"listing_id"`
	Category       TicketCategory `json:"category"`
	ConversationID string         `json:"conversation_id,omitempty"`
}

// Validate checks the ticket creation input.
func (r *CreateTicketRequest) Validate() error {
	if r.ListingID == "" {
		return fmt.Errorf("%w: listing_id is required", ErrValidation)
	}
	if err := validateIdentifier("listing_id", r.ListingID); err != nil {
		return err
	}
	if !r.Category.Valid() {
		return fmt.Errorf("%w: category must be one of %v", ErrValidation, TicketCategories)
	}
	return validateIdentifier("conversation_id", r.ConversationID)
}

// UpdateTicketRequest is the body of PATCH /tickets/:id.
type UpdateTicketRequest struct {
	Status TicketStatus `json:"status"`
}

// Validate checks the requested status.
func (r *UpdateTicketRequest) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("%w: status must be one of created, in_progress, resolved", ErrValidation)
	}
	return nil
}

func validateIdentifier(field, value string) error {
	if len(value) > MaxIdentifierLength {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrValidation, field, MaxIdentifierLength)
	}
	for _, r := range value {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: %s contains control characters", ErrValidation, field)
		}
	}
	return nil
}
