// Package agentworkflow orchestrates the single-evaluator and adversarial
// Maker/Hater/Arbiter consensus stages that decide a mention's fate once
// the matcher has routed it by confidence band (spec §4.5).
package agentworkflow

import "github.com/researchgraph/canonmatch/internal/matcher"

// OutcomeKind names what internal/engine should do next with a mention
// once the workflow finishes.
type OutcomeKind string

const (
	// OutcomeLink means the mention should be linked to Candidate via the
	// auto-linker's LinkExisting path (no band re-check), recording
	// MatchMethod/MatchConfidence on the edge.
	OutcomeLink OutcomeKind = "link"
	// OutcomeCreateNew means a new concept should be created for the
	// mention.
	OutcomeCreateNew OutcomeKind = "create_new"
	// OutcomeEnqueueReview means the workflow could not reach a decision
	// and the mention must go to the review queue with its artefacts.
	OutcomeEnqueueReview OutcomeKind = "enqueue_review"
)

// Outcome is the workflow's terminal decision for one mention.
type Outcome struct {
	Kind            OutcomeKind
	Candidate       *matcher.Candidate
	MatchMethod     string // "agent" for every link/create-new Outcome; empty for OutcomeEnqueueReview
	MatchConfidence string // HIGH | MEDIUM | LOW | REJECTED, mirrors ent/schema/mention.go's enum

	// FromConsensus is true when this Outcome was produced by the
	// Maker/Hater/Arbiter consensus loop rather than a direct Evaluator
	// APPROVE/REJECT. internal/engine uses it to choose which work-item
	// transition path applies: a direct evaluator decision moves straight
	// from AGENT_REVIEW, while a consensus decision must first pass
	// through NEEDS_CONSENSUS or LOW_CONFIDENCE per spec §4.3's table.
	FromConsensus bool

	EscalationReason string
	Artefacts        map[string]any
}
