package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowed_SpecTransitionTable(t *testing.T) {
	assert.True(t, Allowed(Extracted, Matching))
	assert.True(t, Allowed(Matching, HighConfidence))
	assert.True(t, Allowed(HighConfidence, AutoLinked))
	assert.True(t, Allowed(MediumConfidence, AgentReview))
	assert.True(t, Allowed(LowConfidence, PendingReview))
	assert.True(t, Allowed(NoMatch, CreateNewConcept))
	assert.True(t, Allowed(AgentReview, Approved))
	assert.True(t, Allowed(AgentReview, NeedsConsensus))
	assert.True(t, Allowed(AgentReview, CreateNewConcept))
	assert.True(t, Allowed(NeedsConsensus, PendingReview))
	assert.True(t, Allowed(Approved, AutoLinked))
	assert.True(t, Allowed(PendingReview, Approved))
	assert.True(t, Allowed(PendingReview, Rejected))
	assert.True(t, Allowed(PendingReview, Blacklisted))
	assert.True(t, Allowed(Rejected, CreateNewConcept))
	assert.True(t, Allowed(Blacklisted, CreateNewConcept))
}

func TestAllowed_RejectsIllegalEdges(t *testing.T) {
	assert.False(t, Allowed(Extracted, AutoLinked))
	assert.False(t, Allowed(Matching, PendingReview))
	assert.False(t, Allowed(HighConfidence, CreateNewConcept))
}

func TestAllowed_TerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	assert.False(t, Allowed(AutoLinked, CreateNewConcept))
	assert.False(t, Allowed(CreateNewConcept, AutoLinked))
	assert.True(t, IsTerminal(AutoLinked))
	assert.True(t, IsTerminal(CreateNewConcept))
}

func TestAllowed_CancelledReachableFromAnyNonTerminalState(t *testing.T) {
	assert.True(t, Allowed(Extracted, Cancelled))
	assert.True(t, Allowed(PendingReview, Cancelled))
	assert.False(t, Allowed(AutoLinked, Cancelled))
}
