package checkpoint

import "errors"

var (
	// ErrNoCheckpoints is returned when a trace has never been checkpointed.
	ErrNoCheckpoints = errors.New("no checkpoints recorded for trace")

	// ErrCheckpointNotFound is returned when a rollback target checkpoint
	// id does not belong to the requested trace.
	ErrCheckpointNotFound = errors.New("checkpoint not found for trace")
)
