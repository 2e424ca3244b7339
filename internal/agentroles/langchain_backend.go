package agentroles

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// LangchainBackend is an alternative Backend for local or non-Anthropic
// models: a langchaingo llms.Model prompted for strict JSON output (spec
// §9). No config key selects it; cmd/canonmatch-engine wires only
// AnthropicBackend.
type LangchainBackend struct {
	model llms.Model
}

// NewLangchainBackend wraps any langchaingo-compatible model (OpenAI,
// Ollama, ...).
func NewLangchainBackend(model llms.Model) *LangchainBackend {
	return &LangchainBackend{model: model}
}

// GenerateJSON prompts the model for a JSON object satisfying req.Schema
// and returns the raw response text as json.RawMessage. Unlike the
// Anthropic backend's native tool-use, there is no structural guarantee
// here beyond the prompt instruction, so callers must validate the result.
func (b *LangchainBackend) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	schemaJSON, err := json.Marshal(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s schema: %w", req.Role, err)
	}

	system := req.SystemPrompt + "\n\nRespond with a single JSON object matching this schema and nothing else:\n" + string(schemaJSON)

	resp, err := b.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, req.UserPrompt),
	}, llms.WithJSONMode())
	if err != nil {
		return nil, fmt.Errorf("langchaingo %s call: %w", req.Role, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("langchaingo %s call: no choices returned", req.Role)
	}

	return json.RawMessage(resp.Choices[0].Content), nil
}
