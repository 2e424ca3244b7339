package workflow

import "time"

// StuckAction is the outcome of evaluating a non-terminal work item against
// the stuck-item timeout (spec §4.3).
type StuckAction int

const (
	// NotStuck: the item has not exceeded the stuck timeout, or it is
	// already terminal and exempt.
	NotStuck StuckAction = iota
	// Reschedule: retry_count < max_retries, rerun the current stage.
	Reschedule
	// ForcePendingReview: retries exhausted, force-transition to
	// PENDING_REVIEW with reason "stuck".
	ForcePendingReview
)

// StuckReason is the fixed reason string recorded on the forced transition.
const StuckReason = "stuck"

// CheckStuck evaluates item against now and the configured stuck timeout,
// given the timestamp of its last transition (or creation if it has never
// transitioned).
func CheckStuck(item *Item, lastTransitionAt time.Time, now time.Time, stuckTimeout time.Duration) StuckAction {
	if IsTerminal(item.State) {
		return NotStuck
	}
	if now.Sub(lastTransitionAt) < stuckTimeout {
		return NotStuck
	}
	if item.RetryCount < item.MaxRetries {
		return Reschedule
	}
	return ForcePendingReview
}
