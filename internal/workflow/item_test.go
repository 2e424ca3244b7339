package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItem_Apply_AppendsHistoryAndAdvancesState(t *testing.T) {
	item := &Item{ID: "wi1", State: Extracted}

	err := item.Apply(Matching, "matcher invoked", nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, Matching, item.State)
	require.Len(t, item.History, 1)
	assert.Equal(t, "EXTRACTED", item.History[0].FromState)
	assert.Equal(t, "MATCHING", item.History[0].ToState)
	assert.Equal(t, "matcher invoked", item.History[0].Reason)
}

func TestItem_Apply_RejectsIllegalTransition(t *testing.T) {
	item := &Item{ID: "wi1", State: Extracted}

	err := item.Apply(AutoLinked, "skip ahead", nil, nil, nil)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, Extracted, item.State)
	assert.Empty(t, item.History)
}

func TestItem_Apply_CheckpointFailureAbortsTransition(t *testing.T) {
	item := &Item{ID: "wi1", State: Extracted}

	err := item.Apply(Matching, "matcher invoked", nil, nil, func() error {
		return errors.New("disk full")
	})

	assert.ErrorIs(t, err, ErrCheckpointFailed)
	assert.Equal(t, Extracted, item.State)
	assert.Empty(t, item.History)
}

func TestItem_Apply_CheckpointRunsBeforeMutation(t *testing.T) {
	item := &Item{ID: "wi1", State: Extracted}

	var stateAtCheckpointTime State
	err := item.Apply(Matching, "matcher invoked", nil, nil, func() error {
		stateAtCheckpointTime = item.State
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, Extracted, stateAtCheckpointTime)
}
