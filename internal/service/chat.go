package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/yfuks/avahost-tech-test/internal/adapter/llm"
	"github.com/yfuks/avahost-tech-test/internal/domain"
	"github.com/yfuks/avahost-tech-test/internal/observability"
	"github.com/yfuks/avahost-tech-test/internal/sanitize"
	"github.com/yfuks/avahost-tech-test/internal/tools"
	"github.com/yfuks/avahost-tech-test/policy"
)

// MinPartialPersistLength is the shortest interrupted reply, in runes,
// that is still saved when the client goes away mid-stream.
const MinPartialPersistLength = 20

// chatEventBuffer lets the model run slightly ahead of a slow SSE writer.
const chatEventBuffer = 32

// StreamChat validates req and starts a chat turn. The returned channel
// yields an optional conversation event, content deltas, at most one error
// event and the done event, then closes. When ctx is cancelled the channel
// closes without a done event.
func (s *Service) StreamChat(ctx context.Context, req domain.StreamChatRequest) (<-chan domain.ChatEvent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	events := make(chan domain.ChatEvent, chatEventBuffer)
	go s.runChat(ctx, req, events)
	return events, nil
}

type chatTurn struct {
	ctx      context.Context
	events   chan<- domain.ChatEvent
	logger   *slog.Logger
	toolCtx  *tools.ToolContext
	registry *tools.Registry
	reply    strings.Builder
}

func (t *chatTurn) send(ev domain.ChatEvent) bool {
	select {
	case t.events <- ev:
		return true
	case <-t.ctx.Done():
		return false
	}
}

func (s *Service) runChat(ctx context.Context, req domain.StreamChatRequest, events chan<- domain.ChatEvent) {
	defer close(events)

	turn := &chatTurn{
		ctx:    ctx,
		events: events,
		logger: observability.FromContext(ctx, s.logger).With("prompt_version", SystemPromptVersion),
	}

	if s.llmClient == nil {
		turn.logger.Warn("chat rejected", "error", domain.ErrLLMNotConfigured)
		if turn.send(domain.ErrorEvent(domain.ErrLLMNotConfigured.Error())) {
			turn.send(domain.DoneEvent())
		}
		return
	}

	history := make([]string, len(req.Messages))
	for i, m := range req.Messages {
		history[i] = sanitize.Content(m.Content)
	}

	listingID := req.ListingID
	conversationID := ""
	if conv := s.resolveForChat(ctx, req, turn.logger); conv != nil {
		conversationID = conv.ID
		if listingID == "" {
			listingID = domain.StringValue(conv.ListingID)
		}
		if last := history[len(history)-1]; last != "" {
			if err := s.appendMessage(ctx, conv.ID, domain.RoleUser, last); err != nil {
				turn.logger.Warn("failed to persist user message", "conversation_id", conv.ID, "error", err)
			}
		}
		if !turn.send(domain.ConversationEvent(conv.ID)) {
			return
		}
	}

	turn.toolCtx = &tools.ToolContext{
		RequestID:      observability.RequestID(ctx),
		ConversationID: conversationID,
		ListingID:      listingID,
		GuestDeviceID:  req.GuestDeviceID,
	}
	turn.registry = tools.NewConciergeRegistry(turn.toolCtx, tools.Deps{Listings: s.catalog, Tickets: s})
	turn.logger = turn.logger.With("conversation_id", conversationID)

	err := s.runToolLoop(turn, buildContext(history))

	if conversationID != "" {
		s.persistReply(ctx, turn, conversationID, err)
	}

	if ctx.Err() != nil {
		turn.logger.Info("chat turn cancelled by client", "reply_runes", utf8.RuneCountInString(turn.reply.String()))
		return
	}
	if err != nil {
		turn.logger.Error("chat turn failed", "error", err)
		if !turn.send(domain.ErrorEvent(err.Error())) {
			return
		}
	}
	turn.send(domain.DoneEvent())
}

// resolveForChat degrades to no persistence when the store is unavailable.
func (s *Service) resolveForChat(ctx context.Context, req domain.StreamChatRequest, logger *slog.Logger) *domain.Conversation {
	if s.store == nil {
		return nil
	}
	conv, err := s.ResolveConversation(ctx, req.ConversationID, req.ListingID, req.GuestDeviceID)
	if err != nil {
		logger.Warn("conversation unavailable, continuing without persistence", "error", err)
		return nil
	}
	return conv
}

// persistReply saves the assistant text. Interrupted replies are kept only
// when long enough to be useful, and are written under a detached context.
func (s *Service) persistReply(ctx context.Context, turn *chatTurn, conversationID string, runErr error) {
	reply := sanitize.Content(turn.reply.String())
	if reply == "" {
		return
	}
	interrupted := ctx.Err() != nil || runErr != nil
	if interrupted && utf8.RuneCountInString(reply) < MinPartialPersistLength {
		return
	}
	if err := s.appendMessage(context.WithoutCancel(ctx), conversationID, domain.RoleAssistant, reply); err != nil {
		turn.logger.Warn("failed to persist assistant message", "error", err)
	}
}

func buildContext(history []string) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(history)+1)
	messages = append(messages, llm.ChatMessage{Role: "system", Content: SystemPrompt})
	for i, content := range history {
		messages = append(messages, llm.ChatMessage{Role: string(domain.RoleForPosition(i)), Content: content})
	}
	return messages
}

// runToolLoop streams completions until the model answers without tool
// calls. After MaxToolRounds tool rounds the tools are withheld so the
// model has to answer in text.
func (s *Service) runToolLoop(turn *chatTurn, messages []llm.ChatMessage) error {
	maxRounds := s.config.LLM.MaxToolRounds
	maxTokens := s.config.LLM.MaxTokens

	for round := 0; ; round++ {
		req := &llm.ChatCompletionRequest{
			Model:    s.config.LLM.Model,
			Messages: messages,
			Stream:   true,
		}
		if maxTokens > 0 {
			req.MaxTokens = &maxTokens
		}
		if round < maxRounds {
			req.Tools = turn.registry.Definitions()
		}

		acc := llm.NewToolCallAccumulator()
		var text strings.Builder
		usage, err := s.llmClient.CreateChatCompletionStream(turn.ctx, req, func(chunk *llm.StreamChunk) error {
			for _, choice := range chunk.Choices {
				if choice.Index != 0 || choice.Delta == nil {
					continue
				}
				if delta := choice.Delta.Content; delta != "" {
					text.WriteString(delta)
					turn.reply.WriteString(delta)
					if !turn.send(domain.ContentEvent(delta)) {
						return turn.ctx.Err()
					}
				}
				if len(choice.Delta.ToolCalls) > 0 {
					acc.Add(choice.Delta.ToolCalls)
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("llm stream: %w", err)
		}
		if usage != nil {
			turn.logger.Debug("llm round completed",
				"round", round,
				"prompt_tokens", usage.PromptTokens,
				"completion_tokens", usage.CompletionTokens)
		}

		if acc.Len() == 0 || round >= maxRounds {
			if acc.Len() > 0 {
				turn.logger.Warn("tool calls ignored after round limit", "round", round, "calls", acc.Len())
			}
			return nil
		}

		calls := acc.Calls()
		messages = append(messages, llm.ChatMessage{Role: "assistant", Content: text.String(), ToolCalls: calls})
		for _, call := range calls {
			result := s.executeTool(turn, call)
			messages = append(messages, llm.ChatMessage{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    string(result),
			})
		}
	}
}

// executeTool runs one call through the policy gate and the registry. Every
// failure is turned into an error payload for the model.
func (s *Service) executeTool(turn *chatTurn, call llm.ToolCall) json.RawMessage {
	name := call.Function.Name
	logger := turn.logger.With("tool_name", name, "tool_call_id", call.ID)

	args := json.RawMessage(call.Function.Arguments)
	var argsMap map[string]any
	if err := json.Unmarshal(args, &argsMap); err != nil {
		logger.Warn("invalid tool arguments", "error", err)
		return toolError("invalid arguments: expected a JSON object")
	}
	if !turn.registry.Has(name) {
		logger.Warn("unknown tool requested")
		return toolError(fmt.Sprintf("unknown tool %q", name))
	}

	if s.policyEngine != nil {
		decision, reason, err := s.policyEngine.Evaluate(turn.ctx, policy.Input{
			ToolName:         name,
			Args:             argsMap,
			ConversationID:   turn.toolCtx.ConversationID,
			ListingID:        turn.toolCtx.ListingID,
			Verified:         turn.toolCtx.Verified(),
			StrictDisclosure: s.config.Policy.StrictDisclosure,
		})
		if err != nil {
			logger.Error("policy evaluation failed", "error", err)
			return toolError("policy evaluation failed")
		}
		if decision == policy.DecisionBlock {
			logger.Info("tool call blocked by policy", "reason", reason)
			return toolError("blocked: " + reason)
		}
	}

	result, err := turn.registry.Execute(turn.ctx, name, args)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return toolError("request cancelled")
		}
		logger.Warn("tool execution failed", "error", err)
		return toolError(err.Error())
	}
	logger.Debug("tool executed")
	return result
}

func toolError(msg string) json.RawMessage {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return out
}
