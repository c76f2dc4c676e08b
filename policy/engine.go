package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by the tool policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Input is the document the tool policy is evaluated against.
type Input struct {
	ToolName         string         `json:"tool_name"`
	Args             map[string]any `json:"args,omitempty"`
	ConversationID   string         `json:"conversation_id,omitempty"`
	ListingID        string         `json:"listing_id,omitempty"`
	Verified         bool           `json:"verified"`
	StrictDisclosure bool           `json:"strict_disclosure"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.tool_policy"),
		rego.Module("tool_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the tool policy and returns the decision and its reason.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, string, error) {
	doc := map[string]interface{}{
		"tool_name":         input.ToolName,
		"args":              input.Args,
		"conversation_id":   input.ConversationID,
		"listing_id":        input.ListingID,
		"verified":          input.Verified,
		"strict_disclosure": input.StrictDisclosure,
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(doc))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, "default", nil
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return DecisionAllow, "unexpected return type", nil
	}
	decision, _ := obj["decision"].(string)
	reason, _ := obj["reason"].(string)
	if decision == "" {
		decision = DecisionAllow
	}
	return decision, reason, nil
}

// DefaultPolicy is the default policy content. Disclosure of private host
// data is only gated when the caller opts into strict disclosure.
const DefaultPolicy = `
package tool_policy

default decision = "allow"

default reason = ""

decision = "block" {
	input.strict_disclosure
	input.tool_name == "get_private_host_data"
	not input.verified
}

reason = "confirmation code has not been validated in this turn" {
	decision == "block"
}
`
