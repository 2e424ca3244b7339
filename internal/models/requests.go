// Package models holds the plain request/response DTOs that cross the
// engine's boundary (spec §6 "Extractor → Engine", "Operator → Engine").
// They are distinct from the ent-generated persistence entities the same
// way the teacher's pkg/models separates request shapes from *ent.X types.
package models

import "github.com/researchgraph/canonmatch/ent/schema"

// SubmitMentionRequest carries every ProblemMention field the extractor
// supplies (spec §3), i.e. everything except embedding, linkage, and
// workflow state — those are assigned by the engine.
type SubmitMentionRequest struct {
	Statement            string
	PaperID              string
	SectionLabel         string
	SourceText           string
	Domain               string
	Assumptions          []schema.Assumption
	Constraints          []schema.Constraint
	Datasets             []schema.Dataset
	Metrics              []schema.Metric
	Baselines            []schema.Baseline
	ExtractorVersion     string
	ExtractionModelID    string
	ExtractionConfidence float64
	ReviewerID           string
}

// ReprocessFilter selects a set of mentions for the operator `reprocess`
// operation (spec §6).
type ReprocessFilter struct {
	MentionIDs []string
	Domain     string
	PaperID    string
	State      string
}

// RollbackTarget selects the checkpoint a `rollback` operation restores to
// (spec §6: "rollback(trace_id | time | concept_version)").
type RollbackTarget struct {
	TraceID        string
	CheckpointID   string
	ConceptVersion *int
}

// ResolveDecision is the human decision applied by the review queue's
// `resolve` operation (spec §4.6).
type ResolveDecision string

// Resolution decisions recognised by the review queue.
const (
	ResolveApproved    ResolveDecision = "APPROVED"
	ResolveRejected    ResolveDecision = "REJECTED"
	ResolveBlacklisted ResolveDecision = "BLACKLISTED"
)
