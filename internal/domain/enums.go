// Package domain defines the core domain models for the concierge backend.
package domain

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// RoleForPosition returns the role of the message at index i of a chat
// history. Even offsets are user turns, odd offsets are assistant turns.
func RoleForPosition(i int) Role {
	if i%2 == 0 {
		return RoleUser
	}
	return RoleAssistant
}

// TicketCategory classifies a support ticket.
type TicketCategory string

const (
	TicketCategoryInternet  TicketCategory = "internet"
	TicketCategoryEquipment TicketCategory = "equipment"
	TicketCategoryAccess    TicketCategory = "access"
	TicketCategoryOther     TicketCategory = "other"
)

// TicketCategories lists every accepted category.
var TicketCategories = []TicketCategory{
	TicketCategoryInternet,
	TicketCategoryEquipment,
	TicketCategoryAccess,
	TicketCategoryOther,
}

// Valid reports whether c is a known category.
func (c TicketCategory) Valid() bool {
	for _, known := range TicketCategories {
		if c == known {
			return true
		}
	}
	return false
}

// TicketStatus represents the status of a ticket.
type TicketStatus string

const (
	TicketStatusCreated    TicketStatus = "created"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
)

// ticketStatusRank orders statuses along the lifecycle.
var ticketStatusRank = map[TicketStatus]int{
	TicketStatusCreated:    0,
	TicketStatusInProgress: 1,
	TicketStatusResolved:   2,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := ticketStatusRank[s]
	return ok
}

// Open reports whether a ticket in status s still counts as open.
func (s TicketStatus) Open() bool {
	return s == TicketStatusCreated || s == TicketStatusInProgress
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Transitions only move forward; staying in place is allowed.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	from, ok := ticketStatusRank[s]
	if !ok {
		return false
	}
	to, ok := ticketStatusRank[next]
	if !ok {
		return false
	}
	return to >= from
}
