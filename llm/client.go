// Package llm provides the model client abstraction for the agent loop.
//
// A Client accepts the full conversation plus tool schema and returns a
// completed response of content blocks while streaming text deltas
// through a callback. Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion to and from content blocks
// - Provider-specific streaming event handling
package llm

import (
	"context"

	"github.com/sitewright/sitewright/model"
)

// StopReason indicates why the model stopped producing its turn.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
)

// ToolDefinition declares a tool the model may call. Parameters is a
// JSON Schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request carries one model call: conversation state, system prompt,
// declared tools, and streaming callbacks.
type Request struct {
	System string
	Turns  []model.Turn
	Tools  []ToolDefinition

	// WebSearch enables the provider's server-side search tool,
	// when the provider has one.
	WebSearch bool

	// OnDelta receives incremental text fragments before SendMessage
	// resolves. May be nil.
	OnDelta func(text string)
}

// Response is a completed model turn.
type Response struct {
	Content    []model.ContentBlock
	StopReason StopReason
	Usage      model.TokenUsage
}

// Text concatenates the response's text blocks.
func (r *Response) Text() string {
	out := ""
	for _, block := range r.Content {
		if block.Type == model.BlockText {
			out += block.Text
		}
	}
	return out
}

// Invocations extracts the tool invocations requested by the response,
// in block order.
func (r *Response) Invocations() []model.ToolInvocation {
	var out []model.ToolInvocation
	for _, block := range r.Content {
		if inv, ok := block.Invocation(); ok {
			out = append(out, inv)
		}
	}
	return out
}

// Client is the abstract model client.
type Client interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// SendMessage performs one model call, invoking req.OnDelta zero or
	// more times before resolving with the completed response.
	SendMessage(ctx context.Context, req Request) (*Response, error)
}
