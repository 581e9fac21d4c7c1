// Package model provides the shared data model for the agent loop:
// conversation turns, content blocks, tool invocations and tool outcomes.
//
// Information Hiding:
// - Block variant layout hidden behind constructors and accessors
// - JSON encoding of the tagged union encapsulated here
package model

import (
	"encoding/json"
	"fmt"
)

// Role identifies which side of the conversation produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType discriminates the ContentBlock union.
type BlockType string

const (
	BlockText             BlockType = "text"
	BlockToolUse          BlockType = "tool_use"
	BlockToolResult       BlockType = "tool_result"
	BlockServerToolUse    BlockType = "server_tool_use"
	BlockServerToolResult BlockType = "server_tool_result"
)

// ContentBlock is one typed unit of turn content. Exactly one variant's
// fields are meaningful, selected by Type.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// BlockText
	Text string `json:"text,omitempty"`

	// BlockToolUse / BlockServerToolUse
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// BlockToolResult / BlockServerToolResult
	ToolUseID string       `json:"tool_use_id,omitempty"`
	Content   string       `json:"content,omitempty"`
	IsError   bool         `json:"is_error,omitempty"`
	Metadata  *OutcomeMeta `json:"metadata,omitempty"`
}

// TextBlock creates a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolUseBlock creates a tool invocation request block.
func ToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock wraps a tool outcome as a content block.
func ToolResultBlock(outcome ToolOutcome) ContentBlock {
	return ContentBlock{
		Type:      BlockToolResult,
		ToolUseID: outcome.ToolUseID,
		Content:   outcome.Content,
		IsError:   outcome.IsError,
		Metadata:  outcome.Metadata,
	}
}

// ServerToolUseBlock creates a server-side tool invocation block.
func ServerToolUseBlock(id, name string) ContentBlock {
	return ContentBlock{Type: BlockServerToolUse, ID: id, Name: name}
}

// ServerToolResultBlock creates a server-side tool result block.
func ServerToolResultBlock(toolUseID, content string) ContentBlock {
	return ContentBlock{Type: BlockServerToolResult, ToolUseID: toolUseID, Content: content}
}

// String returns a short diagnostic description of the block.
func (b ContentBlock) String() string {
	switch b.Type {
	case BlockText:
		text := b.Text
		if len(text) > 40 {
			text = text[:40] + "..."
		}
		return fmt.Sprintf("text(%q)", text)
	case BlockToolUse, BlockServerToolUse:
		return fmt.Sprintf("%s(id=%s name=%s)", b.Type, b.ID, b.Name)
	case BlockToolResult, BlockServerToolResult:
		return fmt.Sprintf("%s(tool_use_id=%s error=%v)", b.Type, b.ToolUseID, b.IsError)
	default:
		return fmt.Sprintf("unknown(%s)", b.Type)
	}
}

// Turn is one role-tagged, ordered group of content blocks.
type Turn struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// UserTurn creates a user turn from the given blocks.
func UserTurn(blocks ...ContentBlock) Turn {
	return Turn{Role: RoleUser, Content: blocks}
}

// AssistantTurn creates an assistant turn from the given blocks.
func AssistantTurn(blocks ...ContentBlock) Turn {
	return Turn{Role: RoleAssistant, Content: blocks}
}

// ToolInvocation is the unit submitted to the executor pool, extracted
// from a tool_use block. ID is unique within a turn and correlates the
// outcome back to the request.
type ToolInvocation struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// Invocation extracts a ToolInvocation from a tool_use block.
// Returns false for any other block type.
func (b ContentBlock) Invocation() (ToolInvocation, bool) {
	if b.Type != BlockToolUse {
		return ToolInvocation{}, false
	}
	return ToolInvocation{ID: b.ID, Name: b.Name, Input: b.Input}, true
}

// FileOperation classifies a tool invocation's effect on a path.
type FileOperation string

const (
	OpCreate FileOperation = "create"
	OpEdit   FileOperation = "edit"
	OpRead   FileOperation = "read"
)

// OutcomeMeta carries structured metadata about a file operation.
type OutcomeMeta struct {
	Path      string        `json:"path,omitempty"`
	Operation FileOperation `json:"operation,omitempty"`
	SHA256    string        `json:"sha256,omitempty"`
	LineCount int           `json:"lineCount,omitempty"`
}

// ToolOutcome is the result of executing one tool invocation.
type ToolOutcome struct {
	ToolUseID string       `json:"tool_use_id"`
	Content   string       `json:"content"`
	IsError   bool         `json:"is_error"`
	Metadata  *OutcomeMeta `json:"metadata,omitempty"`
}

// SuccessOutcome creates a successful outcome for an invocation.
func SuccessOutcome(toolUseID, content string) ToolOutcome {
	return ToolOutcome{ToolUseID: toolUseID, Content: content}
}

// ErrorOutcome creates a failed outcome for an invocation.
func ErrorOutcome(toolUseID, content string) ToolOutcome {
	return ToolOutcome{ToolUseID: toolUseID, Content: content, IsError: true}
}

// WithMeta attaches file-operation metadata to an outcome.
func (o ToolOutcome) WithMeta(meta OutcomeMeta) ToolOutcome {
	o.Metadata = &meta
	return o
}

// TokenUsage accumulates model token counts across a request.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}
