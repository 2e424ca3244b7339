package agentworkflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchgraph/canonmatch/internal/agentroles"
	"github.com/researchgraph/canonmatch/internal/config"
	"github.com/researchgraph/canonmatch/internal/matcher"
)

type fakeRoles struct {
	evaluate  agentroles.EvaluatorOutput
	evalErr   error
	maker     agentroles.ArgumentOutput
	hater     agentroles.ArgumentOutput
	arbiters  []agentroles.ArbiterOutput // consumed in order, one per round
	arbiterIx int
}

func (f *fakeRoles) Evaluate(ctx context.Context, timeout time.Duration, in agentroles.EvaluatorInput) (agentroles.EvaluatorOutput, error) {
	return f.evaluate, f.evalErr
}
func (f *fakeRoles) Make(ctx context.Context, timeout time.Duration, in agentroles.ArgumentInput) (agentroles.ArgumentOutput, error) {
	return f.maker, nil
}
func (f *fakeRoles) Hate(ctx context.Context, timeout time.Duration, in agentroles.ArgumentInput) (agentroles.ArgumentOutput, error) {
	return f.hater, nil
}
func (f *fakeRoles) Arbitrate(ctx context.Context, timeout time.Duration, in agentroles.ArbiterInput) (agentroles.ArbiterOutput, error) {
	out := f.arbiters[f.arbiterIx]
	f.arbiterIx++
	return out, nil
}

type fakeCheckpointer struct{ saves int }

func (f *fakeCheckpointer) Save(ctx context.Context, traceID, stage string, snapshot, stageOutput map[string]any) (string, error) {
	f.saves++
	return "cp-" + stage, nil
}

func testConfig() (config.ConsensusConfig, config.RoleTimeoutsConfig) {
	cfg := config.DefaultConfig()
	return cfg.Consensus, cfg.RoleTimeouts
}

func TestWorkflow_MediumBandApprove_Links(t *testing.T) {
	roles := &fakeRoles{evaluate: agentroles.EvaluatorOutput{Decision: agentroles.EvaluatorApprove, Confidence: 0.9}}
	cps := &fakeCheckpointer{}
	consensus, timeouts := testConfig()
	wf := New(roles, cps, consensus, timeouts)

	out, err := wf.Run(context.Background(), "trace-1", Input{MentionStatement: "m", CandidateStatement: "c"},
		matcher.BandMedium, matcher.Candidate{ConceptID: "concept-1"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeLink, out.Kind)
	assert.Equal(t, "MEDIUM", out.MatchConfidence)
	assert.Equal(t, "concept-1", out.Candidate.ConceptID)
	assert.Equal(t, 1, cps.saves)
}

func TestWorkflow_MediumBandReject_CreatesNew(t *testing.T) {
	roles := &fakeRoles{evaluate: agentroles.EvaluatorOutput{Decision: agentroles.EvaluatorReject, Confidence: 0.8}}
	cps := &fakeCheckpointer{}
	consensus, timeouts := testConfig()
	wf := New(roles, cps, consensus, timeouts)

	out, err := wf.Run(context.Background(), "trace-1", Input{}, matcher.BandMedium, matcher.Candidate{})

	require.NoError(t, err)
	assert.Equal(t, OutcomeCreateNew, out.Kind)
	assert.Equal(t, "REJECTED", out.MatchConfidence)
}

func TestWorkflow_MediumBandEscalate_EntersConsensus(t *testing.T) {
	roles := &fakeRoles{
		evaluate: agentroles.EvaluatorOutput{Decision: agentroles.EvaluatorEscalate},
		arbiters: []agentroles.ArbiterOutput{{Decision: agentroles.ArbiterLink, Confidence: 0.8}},
	}
	cps := &fakeCheckpointer{}
	consensus, timeouts := testConfig()
	wf := New(roles, cps, consensus, timeouts)

	out, err := wf.Run(context.Background(), "trace-1", Input{}, matcher.BandMedium, matcher.Candidate{ConceptID: "c1"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeLink, out.Kind)
	// one checkpoint for before_evaluator, one for before_consensus_round_1
	assert.Equal(t, 2, cps.saves)
}

func TestWorkflow_LowBand_RetryThenLink(t *testing.T) {
	roles := &fakeRoles{
		arbiters: []agentroles.ArbiterOutput{
			{Decision: agentroles.ArbiterRetry, Confidence: 0.4},
			{Decision: agentroles.ArbiterLink, Confidence: 0.85},
		},
	}
	cps := &fakeCheckpointer{}
	consensus, timeouts := testConfig()
	wf := New(roles, cps, consensus, timeouts)

	out, err := wf.Run(context.Background(), "trace-2", Input{}, matcher.BandLow, matcher.Candidate{ConceptID: "c2"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeLink, out.Kind)
	assert.Equal(t, "LOW", out.MatchConfidence)
	assert.Equal(t, 2, cps.saves)
}

func TestWorkflow_LowBand_FinalRoundRetryForcesLink(t *testing.T) {
	consensus, timeouts := testConfig()
	consensus.MaxRounds = 2
	roles := &fakeRoles{
		arbiters: []agentroles.ArbiterOutput{
			{Decision: agentroles.ArbiterRetry, Confidence: 0.3},
			{Decision: agentroles.ArbiterRetry, Confidence: 0.3}, // final round; forced to LINK
		},
	}
	cps := &fakeCheckpointer{}
	wf := New(roles, cps, consensus, timeouts)

	out, err := wf.Run(context.Background(), "trace-3", Input{}, matcher.BandLow, matcher.Candidate{ConceptID: "c3"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeLink, out.Kind)
}

func TestWorkflow_MisconfiguredZeroRounds_FallsBackToReview(t *testing.T) {
	// The final-round conservative default (OQ1) means a well-formed
	// consensus loop always resolves to LINK or CREATE_NEW, never true
	// exhaustion. The exhaustion branch is a defensive fallback for a
	// misconfigured round cap, exercised here with MaxRounds=0.
	consensus, timeouts := testConfig()
	consensus.MaxRounds = 0
	roles := &fakeRoles{}
	cps := &fakeCheckpointer{}
	wf := New(roles, cps, consensus, timeouts)

	out, err := wf.Run(context.Background(), "trace-4", Input{}, matcher.BandLow, matcher.Candidate{})

	require.NoError(t, err)
	assert.Equal(t, OutcomeEnqueueReview, out.Kind)
	assert.Equal(t, "consensus_rounds_exhausted", out.EscalationReason)
	assert.Equal(t, 0, cps.saves)
}

func TestWorkflow_EvaluatorFailure_EnqueuesReview(t *testing.T) {
	roles := &fakeRoles{evalErr: assertError{}}
	cps := &fakeCheckpointer{}
	consensus, timeouts := testConfig()
	wf := New(roles, cps, consensus, timeouts)

	out, err := wf.Run(context.Background(), "trace-5", Input{}, matcher.BandMedium, matcher.Candidate{})

	require.NoError(t, err)
	assert.Equal(t, OutcomeEnqueueReview, out.Kind)
	assert.Contains(t, out.EscalationReason, "evaluator_failure")
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
