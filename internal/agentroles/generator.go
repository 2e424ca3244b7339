package agentroles

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/researchgraph/canonmatch/internal/resilience"
)

// RoleGenerator dispatches structured-generation calls to a Backend by
// role tag, wrapping every call in the shared embedding/LLM-role breaker
// and retrier (spec §4.8: "Agent role timeout / malformed output: retry
// ×1; then route to consensus or queue").
type RoleGenerator struct {
	backend Backend
	breaker *resilience.Breaker
	retrier *resilience.Retrier
}

// New builds a RoleGenerator around the given backend. retrier should be
// configured for a single retry (spec §4.5: "on timeout the stage is
// retried once").
func New(backend Backend, retrier *resilience.Retrier) *RoleGenerator {
	return &RoleGenerator{
		backend: backend,
		breaker: resilience.NewBreaker(resilience.CollaboratorAgentRole),
		retrier: retrier,
	}
}

func (g *RoleGenerator) call(ctx context.Context, timeout time.Duration, req Request, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var raw json.RawMessage
	err := g.retrier.Do(callCtx, func(ctx context.Context) error {
		callErr := g.breaker.Do(ctx, func(ctx context.Context) error {
			var genErr error
			raw, genErr = g.backend.GenerateJSON(ctx, req)
			return genErr
		})
		if callErr != nil {
			return resilience.MarkTransient(callErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s role call: %w", req.Role, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s role call: malformed output: %w", req.Role, err)
	}
	return nil
}

var evaluatorSchema = map[string]any{
	"decision":    map[string]any{"type": "string", "enum": []string{"APPROVE", "REJECT", "ESCALATE"}},
	"confidence":  map[string]any{"type": "number"},
	"reasoning":   map[string]any{"type": "string"},
	"key_factors": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
}

// Evaluate runs the Evaluator role for a MEDIUM-band match (spec §4.5).
func (g *RoleGenerator) Evaluate(ctx context.Context, timeout time.Duration, in EvaluatorInput) (EvaluatorOutput, error) {
	req := Request{
		Role:         RoleEvaluator,
		SystemPrompt: "You evaluate whether a newly extracted research problem statement matches a candidate canonical concept. Decide APPROVE, REJECT, or ESCALATE to adversarial review.",
		UserPrompt: fmt.Sprintf(
			"Mention statement: %s\nCandidate concept statement: %s\nSimilarity score: %.4f",
			in.MentionStatement, in.CandidateStatement, in.SimilarityScore,
		),
		Schema: evaluatorSchema,
	}
	var out EvaluatorOutput
	if err := g.call(ctx, timeout, req, &out); err != nil {
		return EvaluatorOutput{}, err
	}
	return out, nil
}

var argumentSchema = map[string]any{
	"arguments": map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"claim":    map[string]any{"type": "string"},
				"evidence": map[string]any{"type": "string"},
				"strength": map[string]any{"type": "number"},
			},
		},
	},
	"confidence":      map[string]any{"type": "number"},
	"strongest_index": map[string]any{"type": "integer"},
}

// Make runs the Maker role, arguing that the mention and candidate are the
// same underlying problem (spec §4.5).
func (g *RoleGenerator) Make(ctx context.Context, timeout time.Duration, in ArgumentInput) (ArgumentOutput, error) {
	return g.argue(ctx, timeout, RoleMaker,
		"You argue FOR linking a research problem mention to a candidate canonical concept. Produce 3-5 claim/evidence/strength arguments.",
		in)
}

// Hate runs the Hater role, arguing the opposite position from the Maker
// over the same input (spec §4.5).
func (g *RoleGenerator) Hate(ctx context.Context, timeout time.Duration, in ArgumentInput) (ArgumentOutput, error) {
	return g.argue(ctx, timeout, RoleHater,
		"You argue AGAINST linking a research problem mention to a candidate canonical concept. Produce 3-5 claim/evidence/strength arguments for why they are distinct problems.",
		in)
}

func (g *RoleGenerator) argue(ctx context.Context, timeout time.Duration, role Role, system string, in ArgumentInput) (ArgumentOutput, error) {
	req := Request{
		Role:         role,
		SystemPrompt: system,
		UserPrompt: fmt.Sprintf(
			"Mention statement: %s\nCandidate concept statement: %s",
			in.MentionStatement, in.CandidateStatement,
		),
		Schema: argumentSchema,
	}
	var out ArgumentOutput
	if err := g.call(ctx, timeout, req, &out); err != nil {
		return ArgumentOutput{}, err
	}
	return out, nil
}

var arbiterSchema = map[string]any{
	"decision":        map[string]any{"type": "string", "enum": []string{"LINK", "CREATE_NEW", "RETRY"}},
	"confidence":      map[string]any{"type": "number"},
	"reasoning":       map[string]any{"type": "string"},
	"maker_weight":    map[string]any{"type": "number"},
	"hater_weight":    map[string]any{"type": "number"},
	"decisive_factor": map[string]any{"type": "string"},
}

// Arbitrate runs the Arbiter role over one consensus round (spec §4.5).
// On the final round, RETRY is not a legal decision the caller should
// accept; Arbitrate does not enforce that itself (the prompt nudges it,
// but internal/agentworkflow is the authority that applies the
// conservative LINK fallback, per OQ1).
func (g *RoleGenerator) Arbitrate(ctx context.Context, timeout time.Duration, in ArbiterInput) (ArbiterOutput, error) {
	system := "You arbitrate between a Maker's case for linking and a Hater's case against it. Decide LINK, CREATE_NEW, or RETRY."
	if in.FinalRound {
		system += " This is the final round: RETRY is not available."
	}

	makerJSON, _ := json.Marshal(in.Maker)
	haterJSON, _ := json.Marshal(in.Hater)

	req := Request{
		Role:         RoleArbiter,
		SystemPrompt: system,
		UserPrompt: fmt.Sprintf(
			"Round %d of %d.\nMaker case: %s\nHater case: %s",
			in.Round, in.MaxRounds, makerJSON, haterJSON,
		),
		Schema: arbiterSchema,
	}
	var out ArbiterOutput
	if err := g.call(ctx, timeout, req, &out); err != nil {
		return ArbiterOutput{}, err
	}
	return out, nil
}

var synthesisSchema = map[string]any{
	"canonical_statement": map[string]any{"type": "string"},
	"metadata":            map[string]any{"type": "object"},
	"conflict_markers":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
}

// Synthesise runs the Synthesiser role over a concept's linked mentions
// (spec §4.7).
func (g *RoleGenerator) Synthesise(ctx context.Context, timeout time.Duration, in SynthesisInput) (SynthesisOutput, error) {
	mentionsJSON, _ := json.Marshal(in.MentionStatements)
	req := Request{
		Role:         RoleSynthesiser,
		SystemPrompt: "You synthesise a canonical problem statement (at most two sentences) from the union of its linked mention statements, noting any conflicts.",
		UserPrompt: fmt.Sprintf(
			"Current canonical statement: %s\nLinked mention statements: %s",
			in.ConceptStatement, mentionsJSON,
		),
		Schema: synthesisSchema,
	}
	var out SynthesisOutput
	if err := g.call(ctx, timeout, req, &out); err != nil {
		return SynthesisOutput{}, err
	}
	return out, nil
}
