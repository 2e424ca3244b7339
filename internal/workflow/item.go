package workflow

import (
	"time"

	"github.com/researchgraph/canonmatch/ent/schema"
)

// Item is the mutable slice of a WorkItem that Apply operates on. Callers
// load it from the ent client, call Apply, and persist the result;
// internal/engine saves the checkpoint and updates the work item as
// separate writes, not in one transaction.
type Item struct {
	ID         string
	TraceID    string
	State      State
	History    []schema.StateHistoryEntry
	RetryCount int
	MaxRetries int
	LastError  *string
}

// Apply validates the from→to edge, invokes checkpoint (if non-nil) before
// mutating anything, then appends a history entry and advances State.
// Checkpoint failures abort the transition with no visible change to item
// (spec §4.3).
func (item *Item) Apply(to State, reason string, metadata map[string]any, userID *string, checkpoint func() error) error {
	if !Allowed(item.State, to) {
		return ErrIllegalTransition
	}

	if checkpoint != nil {
		if err := checkpoint(); err != nil {
			return ErrCheckpointFailed
		}
	}

	entry := schema.StateHistoryEntry{
		FromState: string(item.State),
		ToState:   string(to),
		Timestamp: time.Now().UTC(),
		Reason:    reason,
		Metadata:  metadata,
		UserID:    userID,
	}

	item.History = append(item.History, entry)
	item.State = to
	return nil
}
