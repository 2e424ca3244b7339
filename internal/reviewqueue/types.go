package reviewqueue

import "time"

// SuggestedConcept is a candidate surfaced to the reviewer alongside the
// review (mirrors ent/schema/pendingreview.go's SuggestedConcept).
type SuggestedConcept struct {
	ConceptID string
	Score     float64
	Reasoning string
}

// PendingReview is the read shape returned by Next/List/Resolve.
type PendingReview struct {
	ID                string
	WorkItemID        string
	MentionID         string
	ConceptID         *string
	Domain            string
	SuggestedConcepts []SuggestedConcept
	AgentArtefacts    map[string]any
	Priority          int
	SLADeadline       time.Time
	SLABreached       bool
	State             string // queued | assigned | resolved
	AssignedTo        *string
	AssignedAt        *time.Time
	LeaseExpiresAt    *time.Time
	Resolution        *string // linked | created_new | blacklisted
	ResolvedBy        *string
	ResolvedAt        *time.Time
	EscalationReason  *string
	CreatedAt         time.Time
}

// Filter narrows List's read-only query (spec §4.6).
type Filter struct {
	PriorityMin *int
	PriorityMax *int
	Domain      *string
	ReviewerID  *string
	State       *string
}

// Decision is the human reviewer's resolution choice (spec §4.6).
type Decision string

const (
	DecisionApproved    Decision = "APPROVED"
	DecisionRejected    Decision = "REJECTED"
	DecisionBlacklisted Decision = "BLACKLISTED"
)

// ResolveAction tells internal/engine what to do after Resolve persists
// the review's outcome.
type ResolveAction string

const (
	// ActionLink means the engine should auto-link the mention to
	// ConceptID via the auto-linker's human path.
	ActionLink ResolveAction = "link"
	// ActionCreateNew means the engine should create a new concept for
	// the mention.
	ActionCreateNew ResolveAction = "create_new"
	// ActionBlacklistThenCreateNew means the engine should record a
	// BlacklistEntry for (mention, concept) and then create a new
	// concept, per spec §4.6's BLACKLISTED resolution.
	ActionBlacklistThenCreateNew ResolveAction = "blacklist_then_create_new"
)

// ResolveOutcome is Resolve's result: what happened to the review, and
// what the caller must still do to give effect to the reviewer's decision.
type ResolveOutcome struct {
	Action     ResolveAction
	MentionID  string
	ConceptID  *string
}
