package workflow

import "errors"

var (
	// ErrIllegalTransition is returned by Apply when from → to is not in
	// the spec §4.3 transition table (or from is already terminal).
	ErrIllegalTransition = errors.New("illegal work item state transition")

	// ErrCheckpointFailed wraps a checkpoint-save failure that aborted a
	// transition before it touched the work item (spec §4.3: "a checkpoint
	// is saved BEFORE each transition; on failure the work item is
	// restored to the pre-transition state").
	ErrCheckpointFailed = errors.New("checkpoint save failed, transition aborted")
)
