package autolinker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLinkDecision_FirstLinkProceeds covers spec §8 S1/S2: a mention with
// no concept_id yet must proceed through the link/create path.
func TestLinkDecision_FirstLinkProceeds(t *testing.T) {
	skip, err := linkDecision(nil, "concept-1")
	assert.NoError(t, err)
	assert.False(t, skip)
}

// TestLinkDecision_RetryAtSameTargetIsIdempotentNoOp covers spec §8 L3:
// a retried AutoLinkHigh/LinkExisting call against the same target must not
// re-run the counter update — exactly the bug a crash-and-resweep between
// link-commit and checkpoint-persist would otherwise trigger.
func TestLinkDecision_RetryAtSameTargetIsIdempotentNoOp(t *testing.T) {
	linked := "concept-1"
	skip, err := linkDecision(&linked, "concept-1")
	assert.NoError(t, err)
	assert.True(t, skip)
}

// TestLinkDecision_RetargetIsAConflict ensures a mention already linked
// elsewhere is never silently re-pointed: that would be counter drift on
// the original concept, not a harmless retry.
func TestLinkDecision_RetargetIsAConflict(t *testing.T) {
	linked := "concept-1"
	skip, err := linkDecision(&linked, "concept-2")
	assert.ErrorIs(t, err, ErrAlreadyLinked)
	assert.False(t, skip)
}
