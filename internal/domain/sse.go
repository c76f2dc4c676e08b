package domain

// ChatEvent is one item of the chat output stream. Exactly one of the
// fields is set, except for the end sentinel which has Done only.
type ChatEvent struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Content        string `json:"content,omitempty"`
	Error          string `json:"error,omitempty"`
	Done           bool   `json:"-"`
}

// ConversationEvent announces the conversation used for the turn.
func ConversationEvent(id string) ChatEvent { return ChatEvent{ConversationID: id} }

// ContentEvent carries one text delta.
func ContentEvent(text string) ChatEvent { return ChatEvent{Content: text} }

// ErrorEvent carries a terminal error message.
func ErrorEvent(msg string) ChatEvent { return ChatEvent{Error: msg} }

// DoneEvent terminates the stream.
func DoneEvent() ChatEvent { return ChatEvent{Done: true} }

// SSE event names and sentinels.
const (
	SSEDoneSentinel      = "[DONE]"
	SSEEventTicketUpdate = "ticket_updated"
)
