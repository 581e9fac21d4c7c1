// OpenAI-compatible provider implementation using the go-openai library.
// Also serves DeepSeek through a base URL override (same wire protocol).
//
// Information Hiding:
// - API endpoint and authentication
// - Tool-call delta accumulation during streaming
// - Message conversion between chat-completion format and model blocks

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sitewright/sitewright/model"
)

// OpenAIClient implements Client for OpenAI and compatible APIs.
type OpenAIClient struct {
	client      *openai.Client
	name        string
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey, modelID string, maxTokens uint32, temperature float32) *OpenAIClient {
	return &OpenAIClient{
		client:      openai.NewClient(apiKey),
		name:        "openai",
		model:       modelID,
		maxTokens:   int(maxTokens),
		temperature: temperature,
	}
}

// NewOpenAICompatClient creates a client for an OpenAI-compatible API at
// a custom base URL (DeepSeek, local inference servers).
func NewOpenAICompatClient(name, baseURL, apiKey, modelID string, maxTokens uint32, temperature float32) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(config),
		name:        name,
		model:       modelID,
		maxTokens:   int(maxTokens),
		temperature: temperature,
	}
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return c.name
}

// Model returns the current model.
func (c *OpenAIClient) Model() string {
	return c.model
}

// SendMessage streams one chat completion, forwarding content deltas to
// req.OnDelta and accumulating tool-call deltas into complete calls.
func (c *OpenAIClient) SendMessage(ctx context.Context, req Request) (*Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    convertToOpenAIMessages(req.System, req.Turns),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      true,
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	}

	if len(req.Tools) > 0 {
		chatReq.Tools = convertToOpenAITools(req.Tools)
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("stream creation failed: %w", err)
	}
	defer stream.Close()

	var text strings.Builder
	var usage model.TokenUsage
	finishReason := openai.FinishReasonStop

	// Tool-call fragments arrive keyed by index; arguments accumulate
	// across deltas.
	type partialCall struct {
		id   string
		name string
		args strings.Builder
	}
	var calls []*partialCall

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stream recv failed: %w", err)
		}

		if response.Usage != nil {
			usage = model.TokenUsage{
				InputTokens:  response.Usage.PromptTokens,
				OutputTokens: response.Usage.CompletionTokens,
			}
		}

		if len(response.Choices) == 0 {
			continue
		}
		choice := response.Choices[0]
		if choice.FinishReason != "" {
			finishReason = choice.FinishReason
		}

		if choice.Delta.Content != "" {
			text.WriteString(choice.Delta.Content)
			if req.OnDelta != nil {
				req.OnDelta(choice.Delta.Content)
			}
		}

		for _, tc := range choice.Delta.ToolCalls {
			index := 0
			if tc.Index != nil {
				index = *tc.Index
			}
			for index >= len(calls) {
				calls = append(calls, &partialCall{})
			}
			call := calls[index]
			if tc.ID != "" {
				call.id = tc.ID
			}
			if tc.Function.Name != "" {
				call.name = tc.Function.Name
			}
			call.args.WriteString(tc.Function.Arguments)
		}
	}

	var blocks []model.ContentBlock
	if text.Len() > 0 {
		blocks = append(blocks, model.TextBlock(text.String()))
	}
	for _, call := range calls {
		args := call.args.String()
		if args == "" {
			args = "{}"
		}
		blocks = append(blocks, model.ToolUseBlock(call.id, call.name, []byte(args)))
	}

	return &Response{
		Content:    blocks,
		StopReason: convertOpenAIFinishReason(finishReason, len(calls) > 0),
		Usage:      usage,
	}, nil
}

// convertToOpenAIMessages converts turns to chat-completion messages.
// Tool results become individual role "tool" messages; they must follow
// the assistant message carrying the corresponding tool calls.
func convertToOpenAIMessages(system string, turns []model.Turn) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage

	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, turn := range turns {
		switch turn.Role {
		case model.RoleUser:
			var text strings.Builder
			for _, block := range turn.Content {
				switch block.Type {
				case model.BlockText:
					text.WriteString(block.Text)
				case model.BlockToolResult:
					messages = append(messages, openai.ChatCompletionMessage{
						Role:       openai.ChatMessageRoleTool,
						Content:    block.Content,
						ToolCallID: block.ToolUseID,
					})
				}
			}
			if text.Len() > 0 {
				messages = append(messages, openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleUser,
					Content: text.String(),
				})
			}
		case model.RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant}
			var text strings.Builder
			for _, block := range turn.Content {
				switch block.Type {
				case model.BlockText:
					text.WriteString(block.Text)
				case model.BlockToolUse:
					msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
						ID:   block.ID,
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      block.Name,
							Arguments: string(block.Input),
						},
					})
				}
			}
			msg.Content = text.String()
			if msg.Content == "" && len(msg.ToolCalls) == 0 {
				continue
			}
			messages = append(messages, msg)
		}
	}

	return messages
}

// convertToOpenAITools converts tool definitions to OpenAI format.
func convertToOpenAITools(tools []ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}

// convertOpenAIFinishReason maps the finish reason to a stop reason.
func convertOpenAIFinishReason(reason openai.FinishReason, hasToolCalls bool) StopReason {
	switch {
	case reason == openai.FinishReasonToolCalls || hasToolCalls:
		return StopToolUse
	case reason == openai.FinishReasonLength:
		return StopMaxTokens
	default:
		return StopEndTurn
	}
}

// Verify OpenAIClient implements Client
var _ Client = (*OpenAIClient)(nil)
