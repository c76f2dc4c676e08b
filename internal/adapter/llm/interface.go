// Package llm provides an abstraction for LLM API clients.
package llm

import "context"

// LLMClient streams chat completions. Client talks to an OpenAI-compatible
// provider; MockClient replays scripted turns.
type LLMClient interface {
	CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error)
}

var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*MockClient)(nil)
)
