package refinement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var defaultTriggers = []int{5, 10, 25, 50}

func TestShouldRefine_TriggersOnConfiguredCount(t *testing.T) {
	assert.True(t, ShouldRefine(defaultTriggers, 5, 0, false))
	assert.True(t, ShouldRefine(defaultTriggers, 25, 10, false))
}

func TestShouldRefine_SkipsNonTriggerCount(t *testing.T) {
	assert.False(t, ShouldRefine(defaultTriggers, 6, 0, false))
}

func TestShouldRefine_SkipsIfAlreadyRefinedAtThisCount(t *testing.T) {
	assert.False(t, ShouldRefine(defaultTriggers, 10, 10, false))
	assert.False(t, ShouldRefine(defaultTriggers, 5, 10, false))
}

func TestShouldRefine_SkipsHumanEdited(t *testing.T) {
	assert.False(t, ShouldRefine(defaultTriggers, 10, 0, true))
}
