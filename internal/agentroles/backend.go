package agentroles

import (
	"context"
	"encoding/json"
)

// Request is the backend-agnostic shape of a single structured-generation
// call: a role tag (for logging/metrics), the prompts, and a JSON schema
// the caller expects the response to satisfy.
type Request struct {
	Role         Role
	SystemPrompt string
	UserPrompt   string
	Schema       map[string]any
}

// Backend issues one structured-generation call and returns the raw JSON
// decision. Implementations are swappable per spec §9: the Anthropic
// backend uses native tool-use for schema-constrained output, the
// langchaingo backend is the fallback/local-model path.
type Backend interface {
	GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error)
}
