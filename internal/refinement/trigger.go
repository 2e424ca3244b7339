// Package refinement synthesises a concept's canonical statement from its
// linked mentions once enough mentions have accumulated (spec §4.7),
// guarded by an advisory lock so only one synthesis runs per concept at a
// time.
package refinement

import "slices"

// ShouldRefine reports whether a concept newly crossing mentionCount
// should trigger synthesis: mentionCount must be one of the configured
// trigger thresholds, strictly greater than the count refinement last ran
// at, and the concept must not have been hand-edited (spec §4.7).
func ShouldRefine(triggers []int, mentionCount, lastRefinedAtCount int, humanEdited bool) bool {
	if humanEdited {
		return false
	}
	if mentionCount <= lastRefinedAtCount {
		return false
	}
	return slices.Contains(triggers, mentionCount)
}

// MaxCanonicalStatementRunes bounds the synthesiser's output so a
// malformed or runaway generation cannot be written as a concept's
// canonical statement (spec §4.7 "token length within limit").
const MaxCanonicalStatementRunes = 1000
