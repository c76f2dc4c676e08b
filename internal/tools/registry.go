package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/yfuks/avahost-tech-test/internal/adapter/llm"
)

// ExecutorFunc defines a server-side tool executor.
type ExecutorFunc func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)

// Definition describes a tool the model may call.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
	Execute     ExecutorFunc
}

// Registry stores tool definitions keyed by tool name.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
	order       []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]Definition),
	}
}

// Register adds a new tool definition.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if def.Execute == nil {
		return fmt.Errorf("executor is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[def.Name]; exists {
		return fmt.Errorf("executor already registered for %s", def.Name)
	}
	r.definitions[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// MustRegister adds a definition or panics.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Has reports whether a tool is registered.
func (r *Registry) Has(toolName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.definitions[toolName]
	return ok
}

// Definitions returns the tools in registration order, in the wire format
// expected by the chat completion API.
func (r *Registry) Definitions() []llm.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		def := r.definitions[name]
		params := def.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, llm.Tool{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

// Execute runs the executor for the tool name.
func (r *Registry) Execute(ctx context.Context, toolName string, args json.RawMessage) (json.RawMessage, error) {
	if toolName == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	r.mu.RLock()
	def, ok := r.definitions[toolName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no executor registered for %s", toolName)
	}
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	return def.Execute(ctx, args)
}
