// Google Gemini provider implementation using google.golang.org/genai.
//
// Information Hiding:
// - API authentication and client creation
// - System instruction handling via generation config
// - Function-call extraction from the streaming iterator
//
// Gemini has no opaque tool-call ids; function names double as
// correlation ids, both when emitting tool_use blocks and when replaying
// tool results as FunctionResponse parts.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/sitewright/sitewright/model"
)

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
	initErr     error // Stores client initialization error for deferred reporting
}

// NewGeminiClient creates a new Gemini client. If client initialization
// fails, the error is stored and returned on first use.
func NewGeminiClient(apiKey, modelID string, maxTokens uint32, temperature float32) *GeminiClient {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &GeminiClient{
			model:       modelID,
			maxTokens:   int32(maxTokens),
			temperature: temperature,
			initErr:     fmt.Errorf("failed to initialize Gemini client: %w", err),
		}
	}

	return &GeminiClient{
		client:      client,
		model:       modelID,
		maxTokens:   int32(maxTokens),
		temperature: temperature,
	}
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Model returns the current model.
func (c *GeminiClient) Model() string {
	return c.model
}

// SendMessage streams one generation, forwarding text deltas to
// req.OnDelta and collecting function calls.
func (c *GeminiClient) SendMessage(ctx context.Context, req Request) (*Response, error) {
	if c.initErr != nil {
		return nil, c.initErr
	}

	contents := convertToGeminiContents(req.Turns)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.temperature),
		MaxOutputTokens: c.maxTokens,
	}

	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	if len(req.Tools) > 0 {
		config.Tools = convertToGeminiTools(req.Tools)
	}

	var text strings.Builder
	var blocks []model.ContentBlock
	var usage model.TokenUsage
	truncated := false

	// GenerateContentStream returns iter.Seq2[*GenerateContentResponse, error]
	for response, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, config) {
		if err != nil {
			return nil, fmt.Errorf("stream error: %w", err)
		}

		if response.UsageMetadata != nil {
			usage = model.TokenUsage{
				InputTokens:  int(response.UsageMetadata.PromptTokenCount),
				OutputTokens: int(response.UsageMetadata.CandidatesTokenCount),
			}
		}

		if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
			continue
		}
		candidate := response.Candidates[0]
		if candidate.FinishReason == genai.FinishReasonMaxTokens {
			truncated = true
		}

		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
				if req.OnDelta != nil {
					req.OnDelta(part.Text)
				}
			}
			if part.FunctionCall != nil {
				argsJSON, _ := json.Marshal(part.FunctionCall.Args)
				blocks = append(blocks,
					model.ToolUseBlock(part.FunctionCall.Name, part.FunctionCall.Name, argsJSON))
			}
		}
	}

	content := blocks
	if text.Len() > 0 {
		content = append([]model.ContentBlock{model.TextBlock(text.String())}, blocks...)
	}

	stopReason := StopEndTurn
	switch {
	case len(blocks) > 0:
		stopReason = StopToolUse
	case truncated:
		stopReason = StopMaxTokens
	}

	return &Response{
		Content:    content,
		StopReason: stopReason,
		Usage:      usage,
	}, nil
}

// convertToGeminiContents converts turns to Gemini contents.
func convertToGeminiContents(turns []model.Turn) []*genai.Content {
	var contents []*genai.Content

	for _, turn := range turns {
		switch turn.Role {
		case model.RoleUser:
			content := &genai.Content{Role: genai.RoleUser}
			for _, block := range turn.Content {
				switch block.Type {
				case model.BlockText:
					content.Parts = append(content.Parts, &genai.Part{Text: block.Text})
				case model.BlockToolResult:
					var result map[string]any
					_ = json.Unmarshal([]byte(block.Content), &result)
					if result == nil {
						result = map[string]any{"result": block.Content}
					}
					content.Parts = append(content.Parts, &genai.Part{
						FunctionResponse: &genai.FunctionResponse{
							Name:     block.ToolUseID,
							Response: result,
						},
					})
				}
			}
			if len(content.Parts) > 0 {
				contents = append(contents, content)
			}
		case model.RoleAssistant:
			content := &genai.Content{Role: genai.RoleModel}
			for _, block := range turn.Content {
				switch block.Type {
				case model.BlockText:
					content.Parts = append(content.Parts, &genai.Part{Text: block.Text})
				case model.BlockToolUse:
					var args map[string]any
					_ = json.Unmarshal(block.Input, &args)
					content.Parts = append(content.Parts, &genai.Part{
						FunctionCall: &genai.FunctionCall{
							Name: block.Name,
							Args: args,
						},
					})
				}
			}
			if len(content.Parts) > 0 {
				contents = append(contents, content)
			}
		}
	}

	return contents
}

// convertToGeminiTools converts tool definitions to Gemini format.
func convertToGeminiTools(tools []ToolDefinition) []*genai.Tool {
	var declarations []*genai.FunctionDeclaration
	for _, t := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertToGeminiSchema(t.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// convertToGeminiSchema converts a JSON Schema object to Gemini format.
func convertToGeminiSchema(params map[string]any) *genai.Schema {
	schema := &genai.Schema{
		Type: genai.TypeObject,
	}

	if t, ok := params["type"].(string); ok {
		schema.Type = mapToGeminiType(t)
	}

	if req, ok := params["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if req, ok := params["required"].([]string); ok {
		schema.Required = req
	}

	if props, ok := params["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			propMap, ok := prop.(map[string]any)
			if !ok {
				continue
			}
			schema.Properties[name] = convertPropertyToGeminiSchema(propMap)
		}
	}

	return schema
}

// convertPropertyToGeminiSchema converts a single property schema.
func convertPropertyToGeminiSchema(prop map[string]any) *genai.Schema {
	schema := &genai.Schema{}

	if t, ok := prop["type"].(string); ok {
		schema.Type = mapToGeminiType(t)
	}
	if d, ok := prop["description"].(string); ok {
		schema.Description = d
	}

	// Gemini requires 'items' for arrays.
	if schema.Type == genai.TypeArray {
		if items, ok := prop["items"].(map[string]any); ok {
			schema.Items = convertPropertyToGeminiSchema(items)
		} else {
			schema.Items = &genai.Schema{Type: genai.TypeString}
		}
	}

	if schema.Type == genai.TypeObject {
		if props, ok := prop["properties"].(map[string]any); ok {
			schema.Properties = make(map[string]*genai.Schema)
			for name, p := range props {
				if pMap, ok := p.(map[string]any); ok {
					schema.Properties[name] = convertPropertyToGeminiSchema(pMap)
				}
			}
		}
	}

	return schema
}

// mapToGeminiType maps a JSON schema type to a Gemini type.
func mapToGeminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "integer", "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// Verify GeminiClient implements Client
var _ Client = (*GeminiClient)(nil)
