package llm

import "sort"

// ToolCallAccumulator reassembles tool calls from streamed delta fragments.
type ToolCallAccumulator struct {
	calls map[int]*ToolCall
	next  int
}

// NewToolCallAccumulator returns an empty accumulator.
func NewToolCallAccumulator() *ToolCallAccumulator {
	return &ToolCallAccumulator{calls: make(map[int]*ToolCall)}
}

// Add merges delta fragments. Fragments without an index are treated as
// complete calls and appended after the indexed ones.
func (a *ToolCallAccumulator) Add(deltas []ToolCall) {
	for _, d := range deltas {
		idx := a.next
		if d.Index != nil {
			idx = *d.Index
		}
		if idx >= a.next {
			a.next = idx + 1
		}

		call, ok := a.calls[idx]
		if !ok {
			call = &ToolCall{Type: "function"}
			a.calls[idx] = call
		}
		if d.ID != "" {
			call.ID = d.ID
		}
		if d.Type != "" {
			call.Type = d.Type
		}
		if d.Function.Name != "" {
			call.Function.Name += d.Function.Name
		}
		call.Function.Arguments += d.Function.Arguments
	}
}

// Len returns the number of distinct calls seen so far.
func (a *ToolCallAccumulator) Len() int {
	return len(a.calls)
}

// Calls returns the assembled calls in index order, without stream indexes.
func (a *ToolCallAccumulator) Calls() []ToolCall {
	indexes := make([]int, 0, len(a.calls))
	for idx := range a.calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	out := make([]ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		call := *a.calls[idx]
		call.Index = nil
		if call.Function.Arguments == "" {
			call.Function.Arguments = "{}"
		}
		out = append(out, call)
	}
	return out
}
