package reviewqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/researchgraph/canonmatch/ent/pendingreview"
)

// TestResolveGuard_AllowsUnresolvedStates covers spec §8 S3-S7: a review
// still in queued or assigned state must be resolvable.
func TestResolveGuard_AllowsUnresolvedStates(t *testing.T) {
	assert.NoError(t, resolveGuard(pendingreview.StateQueued))
	assert.NoError(t, resolveGuard(pendingreview.StateAssigned))
}

// TestResolveGuard_RejectsAlreadyResolved covers spec §8 L3 ("resolve is
// idempotent ... no double-linking, no counter drift"): a retried Resolve
// call against an already-settled review must not re-derive and re-apply a
// ResolveOutcome.
func TestResolveGuard_RejectsAlreadyResolved(t *testing.T) {
	err := resolveGuard(pendingreview.StateResolved)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}
