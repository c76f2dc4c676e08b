package domain

import "time"

// Conversation groups the messages exchanged with one guest.
type Conversation struct {
	ID            string    `json:"id"`
	ListingID     *string   `json:"listing_id,omitempty"`
	GuestDeviceID *string   `json:"guest_device_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OwnedBy reports whether the conversation may be reused by the given device.
// An empty device id, or a conversation with no known device, matches.
func (c *Conversation) OwnedBy(guestDeviceID string) bool {
	if guestDeviceID == "" || c.GuestDeviceID == nil {
		return true
	}
	return *c.GuestDeviceID == guestDeviceID
}

// ConversationMessage is one persisted turn.
type ConversationMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Ticket is a support request raised for a listing.
type Ticket struct {
	ID             string         `json:"id"`
	ListingID      string         `json:"listing_id"`
	Category       TicketCategory `json:"category"`
	Status         TicketStatus   `json:"status"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ConversationID *string        `json:"conversation_id,omitempty"`
}

// TicketFilter narrows a ticket listing.
type TicketFilter struct {
	ConversationID string
	GuestDeviceID  string
}

// Empty reports whether no filter is set.
func (f TicketFilter) Empty() bool {
	return f.ConversationID == "" && f.GuestDeviceID == ""
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
