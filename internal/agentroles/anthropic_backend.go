package agentroles

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// decisionToolName is the single tool every role call forces via
// ToolChoice, so the model's response is always the structured decision
// rather than free text.
const decisionToolName = "emit_decision"

// AnthropicBackend is the primary Backend: native tool-use gives
// schema-constrained JSON without a separate parsing/repair pass.
type AnthropicBackend struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewAnthropicBackend builds a Backend against the given model (e.g.
// anthropic.ModelClaude3_7SonnetLatest).
func NewAnthropicBackend(apiKey string, model anthropic.Model) *AnthropicBackend {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicBackend{client: &client, model: model}
}

// GenerateJSON issues one tool-forced message and returns the tool's input
// as raw JSON.
func (b *AnthropicBackend) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	message, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
		Tools: []anthropic.ToolUnionParam{
			{
				OfTool: &anthropic.ToolParam{
					Name:        decisionToolName,
					Description: anthropic.String(fmt.Sprintf("Emit the %s role's structured decision.", req.Role)),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: req.Schema,
					},
				},
			},
		},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: decisionToolName},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic %s call: %w", req.Role, err)
	}

	for _, block := range message.Content {
		if toolUse := block.AsToolUse(); toolUse.Name == decisionToolName {
			return toolUse.Input, nil
		}
	}
	return nil, fmt.Errorf("anthropic %s call: no %s tool call in response", req.Role, decisionToolName)
}
