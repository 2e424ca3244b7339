package scenario_test

import (
	"context"
	"time"

	"github.com/researchgraph/canonmatch/internal/agentroles"
	"github.com/researchgraph/canonmatch/internal/matcher"
)

// fakeLookup is an in-memory matcher.ConceptLookup, standing in for the ent
// client in every scenario spec that exercises the matcher in isolation.
type fakeLookup struct {
	byID map[string]matcher.ConceptInfo
}

func (f *fakeLookup) Get(_ context.Context, conceptID string) (matcher.ConceptInfo, error) {
	return f.byID[conceptID], nil
}

// fakeBlacklist is an in-memory matcher.BlacklistFilter keyed by
// "mentionID|conceptID".
type fakeBlacklist struct {
	blocked map[string]bool
}

func (f *fakeBlacklist) IsBlacklisted(_ context.Context, mentionID, conceptID string) (bool, error) {
	return f.blocked[mentionID+"|"+conceptID], nil
}

// fakeCheckpointer satisfies agentworkflow.Checkpointer without touching a
// real checkpoint store; scenario specs only care that the workflow calls
// it, not what it persists.
type fakeCheckpointer struct {
	calls int
}

func (f *fakeCheckpointer) Save(_ context.Context, _, _ string, _, _ map[string]any) (string, error) {
	f.calls++
	return "checkpoint", nil
}

// fakeRoleGenerator satisfies agentworkflow.RoleGenerator with
// scenario-scripted responses: one fixed Evaluator decision, plus a queue
// of Arbiter decisions consumed one per consensus round. The Maker/Hater
// arguments themselves are never asserted on; only the Arbiter's decision
// drives scenario routing.
type fakeRoleGenerator struct {
	evaluatorDecision agentroles.EvaluatorDecision
	arbiterDecisions  []agentroles.ArbiterDecision
	arbiterConfidence float64
	round             int
}

func (f *fakeRoleGenerator) Evaluate(_ context.Context, _ time.Duration, _ agentroles.EvaluatorInput) (agentroles.EvaluatorOutput, error) {
	return agentroles.EvaluatorOutput{Decision: f.evaluatorDecision}, nil
}

func (f *fakeRoleGenerator) Make(_ context.Context, _ time.Duration, _ agentroles.ArgumentInput) (agentroles.ArgumentOutput, error) {
	return agentroles.ArgumentOutput{Confidence: 0.5}, nil
}

func (f *fakeRoleGenerator) Hate(_ context.Context, _ time.Duration, _ agentroles.ArgumentInput) (agentroles.ArgumentOutput, error) {
	return agentroles.ArgumentOutput{Confidence: 0.5}, nil
}

func (f *fakeRoleGenerator) Arbitrate(_ context.Context, _ time.Duration, _ agentroles.ArbiterInput) (agentroles.ArbiterOutput, error) {
	decision := f.arbiterDecisions[f.round]
	f.round++
	return agentroles.ArbiterOutput{Decision: decision, Confidence: f.arbiterConfidence}, nil
}
