package tools

import "sync"

// ToolContext is the request-scoped state tool executors read. A fresh
// value is built for every chat turn and never shared across requests.
type ToolContext struct {
	RequestID      string
	ConversationID string
	ListingID      string
	GuestDeviceID  string

	mu       sync.Mutex
	verified bool
}

// MarkVerified records that the guest supplied a valid confirmation code
// during this turn.
func (tc *ToolContext) MarkVerified() {
	tc.mu.Lock()
	tc.verified = true
	tc.mu.Unlock()
}

// Verified reports whether a confirmation code was validated in this turn.
func (tc *ToolContext) Verified() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.verified
}
