package agentworkflow

import (
	"context"
	"fmt"
	"time"

	"github.com/researchgraph/canonmatch/internal/agentroles"
	"github.com/researchgraph/canonmatch/internal/config"
	"github.com/researchgraph/canonmatch/internal/matcher"
)

// RoleGenerator is the narrow surface of agentroles.RoleGenerator this
// package depends on, so tests can substitute a fake without spinning up a
// real backend.
type RoleGenerator interface {
	Evaluate(ctx context.Context, timeout time.Duration, in agentroles.EvaluatorInput) (agentroles.EvaluatorOutput, error)
	Make(ctx context.Context, timeout time.Duration, in agentroles.ArgumentInput) (agentroles.ArgumentOutput, error)
	Hate(ctx context.Context, timeout time.Duration, in agentroles.ArgumentInput) (agentroles.ArgumentOutput, error)
	Arbitrate(ctx context.Context, timeout time.Duration, in agentroles.ArbiterInput) (agentroles.ArbiterOutput, error)
}

// Checkpointer is the narrow surface of checkpoint.Store this package
// depends on.
type Checkpointer interface {
	Save(ctx context.Context, traceID, stage string, snapshot, stageOutput map[string]any) (string, error)
}

// Workflow runs the evaluator-then-consensus routing described in spec
// §4.5 for a single mention already matched against a candidate concept.
type Workflow struct {
	roles       RoleGenerator
	checkpoints Checkpointer
	consensus   config.ConsensusConfig
	timeouts    config.RoleTimeoutsConfig
}

// New builds a Workflow.
func New(roles RoleGenerator, checkpoints Checkpointer, consensus config.ConsensusConfig, timeouts config.RoleTimeoutsConfig) *Workflow {
	return &Workflow{roles: roles, checkpoints: checkpoints, consensus: consensus, timeouts: timeouts}
}

// Input bundles the text the workflow's roles reason over; everything
// else it needs (band, top candidate) is passed to Run directly since the
// caller already computed them via internal/matcher.
type Input struct {
	MentionStatement   string
	CandidateStatement string
}

// Run routes by band and returns the workflow's terminal Outcome. Callers
// must have already matched the mention and know both its confidence band
// and top candidate (internal/matcher.FindCandidates + Classify).
func (w *Workflow) Run(ctx context.Context, traceID string, in Input, band matcher.Band, candidate matcher.Candidate) (Outcome, error) {
	switch band {
	case matcher.BandMedium:
		return w.runEvaluator(ctx, traceID, in, candidate)
	case matcher.BandLow:
		return w.runConsensus(ctx, traceID, in, candidate, "low_band")
	default:
		return Outcome{}, fmt.Errorf("agentworkflow: band %s does not route through the agent workflow", band)
	}
}

// RunEscalated enters the consensus path directly, for a MEDIUM-band match
// the Evaluator escalated (spec §4.5 step 2's ESCALATE branch).
func (w *Workflow) RunEscalated(ctx context.Context, traceID string, in Input, candidate matcher.Candidate) (Outcome, error) {
	return w.runConsensus(ctx, traceID, in, candidate, "evaluator_escalated")
}

func (w *Workflow) runEvaluator(ctx context.Context, traceID string, in Input, candidate matcher.Candidate) (Outcome, error) {
	if _, err := w.checkpoints.Save(ctx, traceID, "before_evaluator", nil, nil); err != nil {
		return Outcome{}, fmt.Errorf("checkpointing before evaluator: %w", err)
	}

	out, err := w.roles.Evaluate(ctx, w.timeouts.Evaluator, agentroles.EvaluatorInput{
		MentionStatement:   in.MentionStatement,
		CandidateStatement: in.CandidateStatement,
		SimilarityScore:    candidate.BoostedScore,
	})
	if err != nil {
		return Outcome{
			Kind:             OutcomeEnqueueReview,
			EscalationReason: "evaluator_failure: " + err.Error(),
		}, nil
	}

	artefacts := map[string]any{"evaluator": out}

	switch out.Decision {
	case agentroles.EvaluatorApprove:
		return Outcome{
			Kind:            OutcomeLink,
			Candidate:       &candidate,
			MatchMethod:     "agent",
			MatchConfidence: "MEDIUM",
			Artefacts:       artefacts,
		}, nil
	case agentroles.EvaluatorReject:
		return Outcome{
			Kind:            OutcomeCreateNew,
			MatchMethod:     "agent",
			MatchConfidence: "REJECTED",
			Artefacts:       artefacts,
		}, nil
	case agentroles.EvaluatorEscalate:
		return w.RunEscalated(ctx, traceID, in, candidate)
	default:
		return Outcome{
			Kind:             OutcomeEnqueueReview,
			EscalationReason: "evaluator_returned_unknown_decision",
			Artefacts:        artefacts,
		}, nil
	}
}

func (w *Workflow) runConsensus(ctx context.Context, traceID string, in Input, candidate matcher.Candidate, escalationSource string) (Outcome, error) {
	maxRounds := w.consensus.MaxRounds
	rounds := make([]map[string]any, 0, maxRounds)

	for round := 1; round <= maxRounds; round++ {
		stage := fmt.Sprintf("before_consensus_round_%d", round)
		if _, err := w.checkpoints.Save(ctx, traceID, stage, nil, nil); err != nil {
			return Outcome{}, fmt.Errorf("checkpointing %s: %w", stage, err)
		}

		argIn := agentroles.ArgumentInput{MentionStatement: in.MentionStatement, CandidateStatement: in.CandidateStatement}

		makerOut, err := w.roles.Make(ctx, w.timeouts.Maker, argIn)
		if err != nil {
			return Outcome{Kind: OutcomeEnqueueReview, FromConsensus: true, EscalationReason: "maker_failure: " + err.Error(), Artefacts: map[string]any{"rounds": rounds}}, nil
		}
		haterOut, err := w.roles.Hate(ctx, w.timeouts.Hater, argIn)
		if err != nil {
			return Outcome{Kind: OutcomeEnqueueReview, FromConsensus: true, EscalationReason: "hater_failure: " + err.Error(), Artefacts: map[string]any{"rounds": rounds}}, nil
		}

		finalRound := round == maxRounds
		arbOut, err := w.roles.Arbitrate(ctx, w.timeouts.Arbiter, agentroles.ArbiterInput{
			Maker:      makerOut,
			Hater:      haterOut,
			Round:      round,
			MaxRounds:  maxRounds,
			FinalRound: finalRound,
		})
		if err != nil {
			return Outcome{Kind: OutcomeEnqueueReview, FromConsensus: true, EscalationReason: "arbiter_failure: " + err.Error(), Artefacts: map[string]any{"rounds": rounds}}, nil
		}

		decision := arbOut.Decision
		// Below the configured confidence threshold a non-final round is
		// always re-argued, whatever the Arbiter decided.
		if !finalRound && arbOut.Confidence < w.consensus.ArbiterConfidenceThreshold {
			decision = agentroles.ArbiterRetry
		}
		// OQ1: RETRY is not available on the final round; the conservative
		// default is LINK regardless of the confidence that produced it.
		if finalRound && decision == agentroles.ArbiterRetry {
			decision = agentroles.ArbiterLink
		}

		rounds = append(rounds, map[string]any{
			"round": round, "maker": makerOut, "hater": haterOut, "arbiter": arbOut, "forced_final_link": finalRound && arbOut.Decision == agentroles.ArbiterRetry,
		})

		switch decision {
		case agentroles.ArbiterLink:
			return Outcome{
				Kind:            OutcomeLink,
				Candidate:       &candidate,
				MatchMethod:     "agent",
				MatchConfidence: "LOW",
				FromConsensus:   true,
				Artefacts:       map[string]any{"escalation_source": escalationSource, "rounds": rounds},
			}, nil
		case agentroles.ArbiterCreateNew:
			return Outcome{
				Kind:            OutcomeCreateNew,
				MatchMethod:     "agent",
				MatchConfidence: "REJECTED",
				FromConsensus:   true,
				Artefacts:       map[string]any{"escalation_source": escalationSource, "rounds": rounds},
			}, nil
		case agentroles.ArbiterRetry:
			continue
		}
	}

	return Outcome{
		Kind:             OutcomeEnqueueReview,
		FromConsensus:    true,
		EscalationReason: "consensus_rounds_exhausted",
		Artefacts:        map[string]any{"escalation_source": escalationSource, "rounds": rounds},
	}, nil
}
