// Anthropic provider implementation using the official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Content block conversion between the wire format and model blocks
// - Streaming accumulation via the official SDK

package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sitewright/sitewright/model"
)

// AnthropicClient implements Client for Anthropic Claude.
type AnthropicClient struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey, modelID string, maxTokens uint32, temperature float32) *AnthropicClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &AnthropicClient{
		client:      client,
		model:       modelID,
		maxTokens:   int64(maxTokens),
		temperature: float64(temperature),
	}
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// Model returns the current model.
func (c *AnthropicClient) Model() string {
	return c.model
}

// SendMessage streams one model call, forwarding text deltas to
// req.OnDelta, and resolves with the accumulated content blocks.
func (c *AnthropicClient) SendMessage(ctx context.Context, req Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Messages:    convertToAnthropicMessages(req.Turns),
		Temperature: anthropic.Float(c.temperature),
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	if len(req.Tools) > 0 {
		params.Tools = convertToAnthropicTools(req.Tools)
	}

	if req.WebSearch {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{},
		})
	}

	stream := c.client.Messages.NewStreaming(ctx, params)

	var message anthropic.Message
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("accumulate stream event: %w", err)
		}

		if req.OnDelta == nil {
			continue
		}
		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if deltaVariant.Text != "" {
					req.OnDelta(deltaVariant.Text)
				}
			}
		}
	}

	if stream.Err() != nil {
		return nil, fmt.Errorf("stream error: %w", stream.Err())
	}

	return &Response{
		Content:    convertFromAnthropicContent(message.Content),
		StopReason: convertAnthropicStopReason(message.StopReason),
		Usage: model.TokenUsage{
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
		},
	}, nil
}

// convertToAnthropicMessages converts conversation turns to wire format.
func convertToAnthropicMessages(turns []model.Turn) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	for _, turn := range turns {
		role := anthropic.MessageParamRoleUser
		if turn.Role == model.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}

		msg := anthropic.MessageParam{Role: role}
		for _, block := range turn.Content {
			switch block.Type {
			case model.BlockText:
				msg.Content = append(msg.Content, anthropic.NewTextBlock(block.Text))
			case model.BlockToolUse:
				msg.Content = append(msg.Content, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    block.ID,
						Name:  block.Name,
						Input: json.RawMessage(block.Input),
					},
				})
			case model.BlockToolResult:
				msg.Content = append(msg.Content,
					anthropic.NewToolResultBlock(block.ToolUseID, block.Content, block.IsError))
			case model.BlockServerToolUse, model.BlockServerToolResult:
				// Server tool blocks are produced and consumed by the API;
				// replaying them is not supported and they carry no client state.
			}
		}

		if len(msg.Content) == 0 {
			// The API rejects empty message content.
			msg.Content = append(msg.Content, anthropic.NewTextBlock("..."))
		}
		messages = append(messages, msg)
	}

	return messages
}

// convertFromAnthropicContent converts response blocks to model blocks.
func convertFromAnthropicContent(content []anthropic.ContentBlockUnion) []model.ContentBlock {
	var blocks []model.ContentBlock

	for _, block := range content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			blocks = append(blocks, model.TextBlock(variant.Text))
		case anthropic.ToolUseBlock:
			inputJSON, _ := json.Marshal(variant.Input)
			blocks = append(blocks, model.ToolUseBlock(variant.ID, variant.Name, inputJSON))
		case anthropic.ServerToolUseBlock:
			blocks = append(blocks, model.ServerToolUseBlock(variant.ID, string(variant.Name)))
		case anthropic.WebSearchToolResultBlock:
			resultJSON, _ := json.Marshal(variant.Content)
			blocks = append(blocks, model.ServerToolResultBlock(variant.ToolUseID, string(resultJSON)))
		}
	}

	return blocks
}

// convertToAnthropicTools converts tool definitions to wire format.
func convertToAnthropicTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		properties, _ := t.Parameters["properties"].(map[string]any)
		required, _ := t.Parameters["required"].([]string)

		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties,
				Required:   required,
			},
		}
		result[i] = anthropic.ToolUnionParam{OfTool: &toolParam}
	}
	return result
}

// convertAnthropicStopReason maps the wire stop reason to ours.
func convertAnthropicStopReason(reason anthropic.StopReason) StopReason {
	switch reason {
	case anthropic.StopReasonToolUse:
		return StopToolUse
	case anthropic.StopReasonMaxTokens:
		return StopMaxTokens
	default:
		return StopEndTurn
	}
}

// Verify AnthropicClient implements Client
var _ Client = (*AnthropicClient)(nil)
