package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockTurn is one scripted model response: text, tool calls, or both.
// When Err is set it is returned after Content has been streamed.
type MockTurn struct {
	Content   string
	ToolCalls []ToolCall
	Err       error
}

// MockScript decides the next turn from the request the model receives.
type MockScript func(req *ChatCompletionRequest) MockTurn

// MockClient is a mock implementation of LLMClient for testing and demos.
type MockClient struct {
	mu       sync.Mutex
	script   MockScript
	turns    []MockTurn
	requests []ChatCompletionRequest
}

// NewMockClient creates a mock client that echoes the last user message.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// NewScriptedMockClient returns a client that plays turns in order and
// falls back to the echo response once they are exhausted.
func NewScriptedMockClient(turns ...MockTurn) *MockClient {
	return &MockClient{turns: turns}
}

// NewMockClientFunc returns a client whose every turn comes from script.
func NewMockClientFunc(script MockScript) *MockClient {
	return &MockClient{script: script}
}

// Requests returns a copy of every request received so far.
func (m *MockClient) Requests() []ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatCompletionRequest(nil), m.requests...)
}

// CreateChatCompletionStream simulates a streaming response.
func (m *MockClient) CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error) {
	turn := m.nextTurn(req)
	id := fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano())
	created := time.Now().Unix()

	emit := func(delta *ChatMessage, finishReason string) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return callback(&StreamChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   req.Model,
			Choices: []Choice{{Index: 0, Delta: delta, FinishReason: finishReason}},
		})
	}

	// Simulate streaming by sending content in chunks
	for _, chunk := range splitIntoChunks(turn.Content, 10) {
		if err := emit(&ChatMessage{Role: "assistant", Content: chunk}, ""); err != nil {
			return nil, err
		}
	}
	if turn.Err != nil {
		return nil, turn.Err
	}

	// Tool calls are split in two fragments each to mirror real providers.
	for i, call := range turn.ToolCalls {
		idx := i
		args := call.Function.Arguments
		half := len(args) / 2
		head := ToolCall{
			Index:    &idx,
			ID:       call.ID,
			Type:     "function",
			Function: ToolCallFunction{Name: call.Function.Name, Arguments: args[:half]},
		}
		tail := ToolCall{Index: &idx, Function: ToolCallFunction{Arguments: args[half:]}}
		for _, frag := range []ToolCall{head, tail} {
			if err := emit(&ChatMessage{ToolCalls: []ToolCall{frag}}, ""); err != nil {
				return nil, err
			}
		}
	}

	finishReason := "stop"
	if len(turn.ToolCalls) > 0 {
		finishReason = "tool_calls"
	}
	if err := emit(&ChatMessage{}, finishReason); err != nil {
		return nil, err
	}

	return &Usage{
		PromptTokens:     estimateTokens(req),
		CompletionTokens: len(turn.Content) / 4,
		TotalTokens:      estimateTokens(req) + len(turn.Content)/4,
	}, nil
}

func (m *MockClient) nextTurn(req *ChatCompletionRequest) MockTurn {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := *req
	snapshot.Messages = append([]ChatMessage(nil), req.Messages...)
	m.requests = append(m.requests, snapshot)

	if m.script != nil {
		return m.script(req)
	}
	if len(m.turns) > 0 {
		turn := m.turns[0]
		m.turns = m.turns[1:]
		return turn
	}
	return MockTurn{Content: echoResponse(req)}
}

// echoResponse generates a mock response based on the request.
func echoResponse(req *ChatCompletionRequest) string {
	var lastUserMessage string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUserMessage = req.Messages[i].Content
			break
		}
	}

	if lastUserMessage == "" {
		return "[MOCK] Bonjour, je suis Ava."
	}

	return fmt.Sprintf("[MOCK] Message reçu : %q.", truncate(lastUserMessage, 100))
}

// estimateTokens provides a rough token count estimate.
func estimateTokens(req *ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}

// splitIntoChunks splits a string into chunks of approximately the given size,
// never cutting through a multi-byte character.
func splitIntoChunks(s string, chunkSize int) []string {
	runes := []rune(s)
	var chunks []string
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// truncate truncates a string to the given number of characters.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
