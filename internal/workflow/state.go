// Package workflow implements the work-item state machine (spec §4.3): the
// transition table, transition guards, append-only history, and the
// stuck-item rescheduling rule. Persistence of the work item itself is the
// caller's concern (internal/engine calls Apply and writes the result to
// the work item row).
package workflow

// State is a work-item lifecycle state (spec §4.3 table).
type State string

const (
	Extracted        State = "EXTRACTED"
	Matching         State = "MATCHING"
	HighConfidence   State = "HIGH_CONFIDENCE"
	MediumConfidence State = "MEDIUM_CONFIDENCE"
	LowConfidence    State = "LOW_CONFIDENCE"
	NoMatch          State = "NO_MATCH"
	AutoLinked       State = "AUTO_LINKED"
	AgentReview      State = "AGENT_REVIEW"
	NeedsConsensus   State = "NEEDS_CONSENSUS"
	Approved         State = "APPROVED"
	PendingReview    State = "PENDING_REVIEW"
	Rejected         State = "REJECTED"
	Blacklisted      State = "BLACKLISTED"
	CreateNewConcept State = "CREATE_NEW_CONCEPT"

	// Cancelled is a synthetic terminal state for operator-initiated
	// rollback/abandonment (spec §5); it is not reachable via the regular
	// matching pipeline.
	Cancelled State = "CANCELLED"
)

// terminal names the states from which no further transition is permitted
// (spec §4.3: "Terminal states: AUTO_LINKED, CREATE_NEW_CONCEPT").
var terminal = map[State]bool{
	AutoLinked:       true,
	CreateNewConcept: true,
	Cancelled:        true,
}

// IsTerminal reports whether s is a terminal state.
func IsTerminal(s State) bool {
	return terminal[s]
}

// transitions is the full allowed-edges table from spec §4.3's transition
// table, plus the synthetic Cancelled escape hatch reachable from any
// non-terminal state.
var transitions = map[State][]State{
	Extracted:        {Matching},
	Matching:         {HighConfidence, MediumConfidence, LowConfidence, NoMatch},
	HighConfidence:   {AutoLinked},
	MediumConfidence: {AgentReview},
	LowConfidence:    {PendingReview},
	NoMatch:          {CreateNewConcept},
	AgentReview:      {Approved, NeedsConsensus, CreateNewConcept},
	NeedsConsensus:   {PendingReview},
	Approved:         {AutoLinked},
	PendingReview:    {Approved, Rejected, Blacklisted},
	Rejected:         {CreateNewConcept},
	Blacklisted:      {CreateNewConcept},
}

// Allowed reports whether the transition from → to is permitted.
func Allowed(from, to State) bool {
	if terminal[from] {
		return false
	}
	if to == Cancelled {
		return true
	}
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
